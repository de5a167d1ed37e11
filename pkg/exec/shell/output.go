package shell

import (
	"context"
	"sync"

	gserrors "github.com/vnykmshr/goshell/pkg/common/errors"
	"github.com/vnykmshr/goshell/pkg/streaming/stream"
)

// OutputMode enumerates the supported shapes of command output, fixed when
// the Cmd is defined.
type OutputMode int

const (
	// OutputDiscard throws the child's standard output away.
	OutputDiscard OutputMode = iota

	// OutputText aggregates all output into one string once the child exits.
	OutputText

	// OutputBytes aggregates all output into one byte slice.
	OutputBytes

	// OutputLines exposes output as a live stream of text lines.
	OutputLines

	// OutputChunks exposes output as a live stream of byte chunks.
	OutputChunks
)

func (m OutputMode) String() string {
	switch m {
	case OutputDiscard:
		return "discard"
	case OutputText:
		return "text"
	case OutputBytes:
		return "bytes"
	case OutputLines:
		return "lines"
	case OutputChunks:
		return "chunks"
	default:
		return "unknown"
	}
}

// exitSource passes through the child's output and, once it is exhausted,
// surfaces the run's deferred status: an upstream failure recorded by the
// input pump takes precedence, then the child's own exit error. Everything
// the child produced is delivered before any failure is, so output is never
// silently discarded.
type exitSource[T any] struct {
	inner stream.Source[T]
	run   *Run
	done  bool
}

func (s *exitSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.done {
		return zero, false, nil
	}

	v, ok, err := s.inner.Next(ctx)
	if err != nil {
		s.countError()
		return zero, false, err
	}
	if ok {
		s.countItem()
		return v, true, nil
	}

	s.done = true
	// Let the input pump finish before judging the run: a late input-stream
	// failure must not be lost behind a fast stdout EOF. The wait is bounded
	// because the child has stopped producing, so any blocked stdin write
	// fails once the pipe breaks.
	select {
	case <-s.run.pumpDone:
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
	if up := s.run.upstreamErr(); up != nil {
		// The child's own status is secondary to the root cause; reap it
		// without reporting.
		s.run.proc.Release()
		s.countError()
		return zero, false, gserrors.Upstream(up)
	}
	if err := s.run.proc.Wait(); err != nil {
		s.countError()
		return zero, false, err
	}
	return zero, false, nil
}

// countItem and countError feed the stream counters when the owning Cmd was
// defined with metrics. The output mode doubles as the operation label.
func (s *exitSource[T]) countItem() {
	if m := s.run.cmd.metrics; m != nil {
		m.StreamItems.WithLabelValues(s.run.cmd.output.String(), s.run.cmd.name).Inc()
	}
}

func (s *exitSource[T]) countError() {
	if m := s.run.cmd.metrics; m != nil {
		m.StreamErrors.WithLabelValues(s.run.cmd.output.String(), s.run.cmd.name).Inc()
	}
}

func (s *exitSource[T]) Close() error {
	err := s.inner.Close()
	// An abandoned consumer releases the child; shutdown errors are expected
	// collateral and the release path swallows them.
	s.run.proc.Release()
	return err
}

// lineQueue buffers captured stderr lines between the drain goroutine and an
// optional consumer. It is unbounded so the drain never stalls the child's
// stderr pipe, whether or not anyone reads the lines.
type lineQueue struct {
	mu     sync.Mutex
	lines  []string
	err    error
	done   bool
	notify chan struct{}
}

func newLineQueue() *lineQueue {
	return &lineQueue{notify: make(chan struct{}, 1)}
}

func (q *lineQueue) push(line string) {
	q.mu.Lock()
	q.lines = append(q.lines, line)
	q.mu.Unlock()
	q.wake()
}

func (q *lineQueue) finish(err error) {
	q.mu.Lock()
	q.done = true
	q.err = err
	q.mu.Unlock()
	q.wake()
}

func (q *lineQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *lineQueue) Next(ctx context.Context) (string, bool, error) {
	for {
		q.mu.Lock()
		if len(q.lines) > 0 {
			line := q.lines[0]
			q.lines = q.lines[1:]
			q.mu.Unlock()
			return line, true, nil
		}
		done, err := q.done, q.err
		q.mu.Unlock()

		if done {
			return "", false, err
		}
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-q.notify:
		}
	}
}

func (q *lineQueue) Close() error {
	return nil
}
