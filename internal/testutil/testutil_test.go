package testutil

import (
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"
)

func TestEventually(t *testing.T) {
	var flag int32
	go func() {
		time.Sleep(20 * time.Millisecond)
		atomic.StoreInt32(&flag, 1)
	}()

	Eventually(t, func() bool {
		return atomic.LoadInt32(&flag) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestChunkReader(t *testing.T) {
	r := NewChunkReader([]byte("ab"), []byte("cde"))

	buf := make([]byte, 16)
	n, err := r.Read(buf)
	AssertNoError(t, err)
	AssertEqual(t, string(buf[:n]), "ab")

	n, err = r.Read(buf)
	AssertNoError(t, err)
	AssertEqual(t, string(buf[:n]), "cde")

	_, err = r.Read(buf)
	AssertErrorIs(t, err, io.EOF)
}

func TestChunkReaderSmallBuffer(t *testing.T) {
	r := NewChunkReader([]byte("abcd"))

	buf := make([]byte, 3)
	n, err := r.Read(buf)
	AssertNoError(t, err)
	AssertEqual(t, string(buf[:n]), "abc")

	n, err = r.Read(buf)
	AssertNoError(t, err)
	AssertEqual(t, string(buf[:n]), "d")
}

func TestFailingWriter(t *testing.T) {
	boom := errors.New("boom")
	w := NewFailingWriter(3, boom)

	n, err := w.Write([]byte("ab"))
	AssertNoError(t, err)
	AssertEqual(t, n, 2)

	n, err = w.Write([]byte("cd"))
	AssertErrorIs(t, err, boom)
	AssertEqual(t, n, 1)
}
