// Package iox wraps stream handles so that closing them is idempotent.
//
// The normal completion path, the error cleanup path, and a forced group
// shutdown may all try to close the same pipe; these wrappers make that safe.
package iox

import (
	"io"
	"sync"
	"sync/atomic"

	gserrors "github.com/vnykmshr/goshell/pkg/common/errors"
)

// ReadCloser delegates to an io.ReadCloser until the first Close. Reads after
// Close fail with ErrClosed; further Close calls do nothing and report the
// first call's result.
type ReadCloser struct {
	r         io.ReadCloser
	closed    int32 // atomic
	closeOnce sync.Once
	closeErr  error
}

// NewReadCloser wraps r with idempotent close semantics.
func NewReadCloser(r io.ReadCloser) *ReadCloser {
	return &ReadCloser{r: r}
}

func (c *ReadCloser) Read(p []byte) (int, error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return 0, gserrors.ErrClosed
	}
	return c.r.Read(p)
}

// Close is safe on a nil receiver, so cleanup paths can close a pipe that
// was never requested.
func (c *ReadCloser) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		atomic.StoreInt32(&c.closed, 1)
		c.closeErr = c.r.Close()
	})
	return c.closeErr
}

// Closed reports whether Close has been called.
func (c *ReadCloser) Closed() bool {
	return atomic.LoadInt32(&c.closed) != 0
}

// WriteCloser delegates to an io.WriteCloser until the first Close. Writes
// after Close fail with ErrClosed; further Close calls do nothing and report
// the first call's result.
type WriteCloser struct {
	w         io.WriteCloser
	closed    int32 // atomic
	closeOnce sync.Once
	closeErr  error
}

// NewWriteCloser wraps w with idempotent close semantics.
func NewWriteCloser(w io.WriteCloser) *WriteCloser {
	return &WriteCloser{w: w}
}

func (c *WriteCloser) Write(p []byte) (int, error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return 0, gserrors.ErrClosed
	}
	return c.w.Write(p)
}

// Close is safe on a nil receiver, so cleanup paths can close a pipe that
// was never requested.
func (c *WriteCloser) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		atomic.StoreInt32(&c.closed, 1)
		c.closeErr = c.w.Close()
	})
	return c.closeErr
}

// Closed reports whether Close has been called.
func (c *WriteCloser) Closed() bool {
	return atomic.LoadInt32(&c.closed) != 0
}

// CloseQuietly closes c and discards the error. Intended for forced-shutdown
// paths where a failure to close a broken pipe is expected collateral.
func CloseQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
