/*
Package stream provides lazy, single-use streams with higher-order operations
over any asynchronous sequence.

A Stream records intermediate operations (Filter, Map, Skip, Limit, FlatMap,
Peek, MapConcurrent) without touching its source; only a terminal operation
(ForEach, ToSlice, Reduce, Count, First, Last, AnyMatch) drives the sequence,
pulling elements one at a time so a slow consumer naturally throttles the
producer.

Streams are single-use: once a terminal operation has begun draining a
stream, a second terminal operation fails with ErrConsumed. To consume the
same data more than once, split the stream first:

	cursors := s.Tee(2)
	n, _ := cursors[0].Count(ctx)
	sum, _ := cursors[1].Reduce(ctx, 0, func(a, b int) int { return a + b })

Each Tee cursor observes the full sequence in original order and advances
independently.

MapConcurrent applies a mapper with a bounded number of invocations in
flight. The ordered form preserves input order by buffering results that
complete early; MapConcurrentUnordered trades ordering for throughput and
emits results as they complete. Both stop submitting new work after the
first mapper error while letting started invocations finish.

Process output from pkg/exec/shell is exposed as a Stream, but any Source
implementation works; see FromSlice, FromChannel, FromFunc, and Generate.
*/
package stream
