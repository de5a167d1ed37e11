package testutil

import (
	"errors"
	"io"
)

// ChunkReader yields a predetermined sequence of chunks, one per Read call,
// regardless of the buffer size offered. Tests use it to force specific chunk
// boundaries onto byte-stream consumers.
type ChunkReader struct {
	chunks [][]byte
	closed bool
}

// NewChunkReader creates a ChunkReader over the given chunks.
func NewChunkReader(chunks ...[]byte) *ChunkReader {
	return &ChunkReader{chunks: chunks}
}

func (r *ChunkReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, errors.New("read from closed ChunkReader")
	}
	for len(r.chunks) > 0 && len(r.chunks[0]) == 0 {
		r.chunks = r.chunks[1:]
	}
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

// Close marks the reader closed; later reads fail.
func (r *ChunkReader) Close() error {
	r.closed = true
	return nil
}

// FailingWriter accepts limit bytes and then fails every write with err.
type FailingWriter struct {
	limit   int
	written int
	err     error
}

// NewFailingWriter creates a FailingWriter that fails after limit bytes.
func NewFailingWriter(limit int, err error) *FailingWriter {
	return &FailingWriter{limit: limit, err: err}
}

func (w *FailingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.limit {
		n := w.limit - w.written
		if n < 0 {
			n = 0
		}
		w.written += n
		return n, w.err
	}
	w.written += len(p)
	return len(p), nil
}
