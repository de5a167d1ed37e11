/*
Package streaming turns asynchronous byte and value sequences into lazy,
composable streams.

This package provides three streaming components:

  - stream: lazy, single-use streams with map/filter/reduce, bounded
    concurrent mapping, and tee fan-out
  - lines: splitting of raw byte chunks into line records, independent of
    how the bytes were chunked
  - redissink: shipping a line stream into a Redis stream for consumers on
    other hosts

Basic usage:

	// Split a reader into lines and process them lazily
	matched, err := lines.StreamLines(r).
		Filter(func(line string) bool { return strings.HasPrefix(line, "WARN") }).
		Count(ctx)

Streams are single-use: one terminal operation drains them, and a second
attempt reports an error instead of silently yielding nothing. Tee is the
explicit way to give multiple consumers the same data.
*/
package streaming
