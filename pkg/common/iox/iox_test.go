package iox

import (
	"errors"
	"io"
	"strings"
	"testing"

	gserrors "github.com/vnykmshr/goshell/pkg/common/errors"
)

// countingCloser records how many times Close reached the wrapped handle.
type countingCloser struct {
	closes int
	err    error
}

func (c *countingCloser) Close() error {
	c.closes++
	return c.err
}

func readHandle(r io.Reader, c io.Closer) io.ReadCloser {
	return struct {
		io.Reader
		io.Closer
	}{r, c}
}

func writeHandle(w io.Writer, c io.Closer) io.WriteCloser {
	return struct {
		io.Writer
		io.Closer
	}{w, c}
}

func TestReadCloserIdempotent(t *testing.T) {
	inner := &countingCloser{}
	rc := NewReadCloser(readHandle(strings.NewReader(""), inner))

	for i := 0; i < 5; i++ {
		if err := rc.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
	if inner.closes != 1 {
		t.Fatalf("wrapped handle closed %d times, want 1", inner.closes)
	}
	if !rc.Closed() {
		t.Fatal("Closed() = false after Close")
	}
}

func TestReadCloserFirstErrorSticks(t *testing.T) {
	inner := &countingCloser{err: errors.New("broken pipe")}
	rc := NewReadCloser(readHandle(strings.NewReader(""), inner))

	first := rc.Close()
	second := rc.Close()
	if first == nil || !errors.Is(second, first) {
		t.Fatalf("close errors: first=%v second=%v", first, second)
	}
	if inner.closes != 1 {
		t.Fatalf("wrapped handle closed %d times, want 1", inner.closes)
	}
}

func TestReadAfterClose(t *testing.T) {
	rc := NewReadCloser(readHandle(strings.NewReader("data"), &countingCloser{}))

	buf := make([]byte, 2)
	if _, err := rc.Read(buf); err != nil {
		t.Fatalf("read before close: %v", err)
	}

	_ = rc.Close()
	if _, err := rc.Read(buf); !errors.Is(err, gserrors.ErrClosed) {
		t.Fatalf("read after close: %v, want ErrClosed", err)
	}
}

func TestWriteCloser(t *testing.T) {
	inner := &countingCloser{}
	wc := NewWriteCloser(writeHandle(io.Discard, inner))

	if n, err := wc.Write([]byte("ab")); n != 2 || err != nil {
		t.Fatalf("write: n=%d err=%v", n, err)
	}

	for i := 0; i < 3; i++ {
		_ = wc.Close()
	}
	if inner.closes != 1 {
		t.Fatalf("wrapped handle closed %d times, want 1", inner.closes)
	}

	if _, err := wc.Write([]byte("cd")); !errors.Is(err, gserrors.ErrClosed) {
		t.Fatalf("write after close: %v, want ErrClosed", err)
	}
}

func TestNilWrappersClose(t *testing.T) {
	var rc *ReadCloser
	var wc *WriteCloser

	if err := rc.Close(); err != nil {
		t.Fatalf("nil ReadCloser close: %v", err)
	}
	if err := wc.Close(); err != nil {
		t.Fatalf("nil WriteCloser close: %v", err)
	}

	// A typed-nil pointer inside the io.Closer interface defeats the
	// interface nil check; the nil-safe Close must carry it instead.
	CloseQuietly(rc)
	CloseQuietly(wc)
}

func TestCloseQuietly(t *testing.T) {
	CloseQuietly(nil) // must not panic
	inner := &countingCloser{err: errors.New("boom")}
	CloseQuietly(inner)
	if inner.closes != 1 {
		t.Fatalf("closes = %d, want 1", inner.closes)
	}
}
