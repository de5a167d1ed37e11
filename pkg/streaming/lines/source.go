package lines

import (
	"context"
	"io"

	"github.com/vnykmshr/goshell/pkg/streaming/stream"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 32 * 1024

// chunkSource pulls byte chunks from a reader. Each chunk is freshly
// allocated so downstream consumers may retain it.
type chunkSource struct {
	r    io.Reader
	size int
	err  error // deferred read error, delivered after its partial chunk
}

func newChunkSource(r io.Reader, size int) *chunkSource {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &chunkSource{r: r, size: size}
}

func (s *chunkSource) Next(ctx context.Context) ([]byte, bool, error) {
	if s.err != nil {
		err := s.err
		s.err = nil
		if err == io.EOF {
			return nil, false, nil
		}
		return nil, false, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		default:
		}

		buf := make([]byte, s.size)
		n, err := s.r.Read(buf)
		if n > 0 {
			if err != nil {
				s.err = err
			}
			return buf[:n], true, nil
		}
		if err == io.EOF {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
	}
}

func (s *chunkSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// lineSource splits the chunks of an inner source into individual lines.
type lineSource struct {
	inner    *chunkSource
	splitter Splitter
	queue    [][]byte
	done     bool
}

func (s *lineSource) Next(ctx context.Context) (string, bool, error) {
	for {
		if len(s.queue) > 0 {
			line := s.queue[0]
			s.queue = s.queue[1:]
			return string(line), true, nil
		}
		if s.done {
			return "", false, nil
		}

		chunk, ok, err := s.inner.Next(ctx)
		if err != nil {
			return "", false, err
		}
		if !ok {
			s.done = true
			if tail, ok := s.splitter.Flush(); ok {
				return string(tail), true, nil
			}
			return "", false, nil
		}
		s.queue = s.splitter.Push(chunk)
	}
}

func (s *lineSource) Close() error {
	return s.inner.Close()
}

// batchSource emits the lines completed by each chunk as one batch, to
// amortize per-line handoff cost when chunks carry very many tiny lines.
type batchSource struct {
	inner    *chunkSource
	splitter Splitter
	done     bool
}

func (s *batchSource) Next(ctx context.Context) ([]string, bool, error) {
	for {
		if s.done {
			return nil, false, nil
		}

		chunk, ok, err := s.inner.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			s.done = true
			if tail, ok := s.splitter.Flush(); ok {
				return []string{string(tail)}, true, nil
			}
			return nil, false, nil
		}

		batch := s.splitter.Push(chunk)
		if len(batch) == 0 {
			continue
		}
		out := make([]string, len(batch))
		for i, line := range batch {
			out[i] = string(line)
		}
		return out, true, nil
	}
}

func (s *batchSource) Close() error {
	return s.inner.Close()
}

// NewChunkSource returns a Source of byte chunks read from r. If r implements
// io.Closer it is closed with the source.
func NewChunkSource(r io.Reader, size int) stream.Source[[]byte] {
	return newChunkSource(r, size)
}

// NewLineSource returns a Source of text lines read from r.
func NewLineSource(r io.Reader) stream.Source[string] {
	return &lineSource{inner: newChunkSource(r, 0)}
}

// NewBatchSource returns a Source of per-chunk line batches read from r.
func NewBatchSource(r io.Reader) stream.Source[[]string] {
	return &batchSource{inner: newChunkSource(r, 0)}
}

// StreamLines wraps r as a lazy stream of text lines.
func StreamLines(r io.Reader) stream.Stream[string] {
	return stream.New(NewLineSource(r))
}

// StreamChunks wraps r as a lazy stream of byte chunks.
func StreamChunks(r io.Reader, size int) stream.Stream[[]byte] {
	return stream.New(NewChunkSource(r, size))
}

// StreamBatches wraps r as a lazy stream of per-chunk line batches.
func StreamBatches(r io.Reader) stream.Stream[[]string] {
	return stream.New(NewBatchSource(r))
}
