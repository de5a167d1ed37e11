package stream

import (
	"context"
	"sync"
	"sync/atomic"

	gserrors "github.com/vnykmshr/goshell/pkg/common/errors"
)

// ErrClosed is returned when attempting to operate on a closed stream.
var ErrClosed = gserrors.ErrClosed

// ErrConsumed is returned when a second terminal operation is started on a
// stream that has already been drained. A stream may be iterated at most once
// unless it is split with Tee.
var ErrConsumed = gserrors.ErrConsumed

// Stream is a lazy, single-use cursor over an asynchronous sequence of T.
// Intermediate operations record work without touching the source; only a
// terminal operation drives the sequence to completion.
type Stream[T any] interface {
	// Intermediate operations (lazy, return a new Stream)

	// Filter keeps the elements that match the given predicate.
	Filter(predicate func(T) bool) Stream[T]

	// Map transforms each element with the given function.
	Map(mapper func(T) T) Stream[T]

	// FlatMap replaces each element with the contents of the mapped stream.
	FlatMap(mapper func(T) Stream[T]) Stream[T]

	// Skip drops the first n elements.
	Skip(n int64) Stream[T]

	// Limit truncates the stream to at most n elements.
	Limit(n int64) Stream[T]

	// Peek invokes action on each element as it passes through.
	Peek(action func(T)) Stream[T]

	// MapConcurrent applies mapper with at most width invocations in flight,
	// preserving input order. Completed-but-out-of-order results are buffered
	// until their turn. The first mapper error stops submission of further
	// elements; invocations already started are allowed to finish.
	MapConcurrent(width int, mapper func(context.Context, T) (T, error)) Stream[T]

	// MapConcurrentUnordered is MapConcurrent without the ordering guarantee:
	// results are emitted as soon as they complete.
	MapConcurrentUnordered(width int, mapper func(context.Context, T) (T, error)) Stream[T]

	// Tee consumes this stream and fans it out into n independent cursors over
	// the same data. Each cursor observes the full sequence in original order
	// and advances independently of the others.
	Tee(n int) []Stream[T]

	// Terminal operations (eager, drain the stream)

	// ForEach invokes action for every element.
	ForEach(ctx context.Context, action func(T)) error

	// ForEachUntil invokes action for every element until it returns false,
	// then stops draining. Stopping early is not an error.
	ForEachUntil(ctx context.Context, action func(T) bool) error

	// ToSlice collects all elements into a slice.
	ToSlice(ctx context.Context) ([]T, error)

	// Reduce folds the elements using identity and accumulator.
	Reduce(ctx context.Context, identity T, accumulator func(T, T) T) (T, error)

	// Count returns the number of elements.
	Count(ctx context.Context) (int64, error)

	// First returns the first element, if present.
	First(ctx context.Context) (T, bool, error)

	// Last returns the final element, if present.
	Last(ctx context.Context) (T, bool, error)

	// AnyMatch reports whether any element matches the predicate.
	AnyMatch(ctx context.Context, predicate func(T) bool) (bool, error)

	// Stream control

	// Close releases the underlying source. Safe to call more than once.
	Close() error

	// IsClosed reports whether the stream has been closed.
	IsClosed() bool
}

// Source is the asynchronous sequence a Stream pulls from.
type Source[T any] interface {
	// Next returns the next element and true, or the zero value and false once
	// the sequence is exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases the source.
	Close() error
}

// item carries one pipeline element together with error and end markers.
type item[T any] struct {
	value T
	err   error
	end   bool
}

// core is the state shared by a stream and everything derived from it.
// Deriving a new stream with an intermediate operation does not create a new
// cursor; all derivations drain the same source, so consumption is tracked here.
type core[T any] struct {
	source     Source[T]
	consumed   int32 // atomic
	closed     int32 // atomic
	mu         sync.Mutex
	cancelExec context.CancelFunc
}

type stream[T any] struct {
	core     *core[T]
	pipeline []operation[T]
}

// New creates a Stream pulling from the given source.
func New[T any](source Source[T]) Stream[T] {
	return &stream[T]{core: &core[T]{source: source}}
}

// stageBuffer is the channel capacity between pipeline stages. It is kept
// small so that a slow consumer throttles the source instead of the pipeline
// buffering ahead of it.
const stageBuffer = 16

// derive returns a new stream over the same core with op appended.
func (s *stream[T]) derive(op operation[T]) *stream[T] {
	pipeline := make([]operation[T], len(s.pipeline), len(s.pipeline)+1)
	copy(pipeline, s.pipeline)
	return &stream[T]{core: s.core, pipeline: append(pipeline, op)}
}

// begin marks the stream consumed. It fails if the stream is closed or if a
// terminal operation has already begun draining it.
func (s *stream[T]) begin() error {
	if !atomic.CompareAndSwapInt32(&s.core.consumed, 0, 1) {
		return ErrConsumed
	}
	if s.IsClosed() {
		return ErrClosed
	}
	return nil
}

// forEachItem begins consumption and drives the pipeline, handing each value
// to visit until the stream ends, fails, or visit returns false.
func (s *stream[T]) forEachItem(ctx context.Context, visit func(T) bool) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ch, err := s.execute(ctx)
	if err != nil {
		return err
	}

	for el := range ch {
		if el.err != nil {
			return el.err
		}
		if el.end {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !visit(el.value) {
			return nil
		}
	}
	return nil
}

func (s *stream[T]) ForEach(ctx context.Context, action func(T)) error {
	return s.forEachItem(ctx, func(v T) bool {
		action(v)
		return true
	})
}

func (s *stream[T]) ForEachUntil(ctx context.Context, action func(T) bool) error {
	return s.forEachItem(ctx, action)
}

func (s *stream[T]) ToSlice(ctx context.Context) ([]T, error) {
	var result []T
	err := s.forEachItem(ctx, func(v T) bool {
		result = append(result, v)
		return true
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *stream[T]) Reduce(ctx context.Context, identity T, accumulator func(T, T) T) (T, error) {
	result := identity
	err := s.forEachItem(ctx, func(v T) bool {
		result = accumulator(result, v)
		return true
	})
	if err != nil {
		return identity, err
	}
	return result, nil
}

func (s *stream[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.forEachItem(ctx, func(T) bool {
		count++
		return true
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *stream[T]) First(ctx context.Context) (T, bool, error) {
	var (
		first T
		found bool
	)
	err := s.forEachItem(ctx, func(v T) bool {
		first, found = v, true
		return false
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return first, found, nil
}

func (s *stream[T]) Last(ctx context.Context) (T, bool, error) {
	var (
		last  T
		found bool
	)
	err := s.forEachItem(ctx, func(v T) bool {
		last, found = v, true
		return true
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return last, found, nil
}

func (s *stream[T]) AnyMatch(ctx context.Context, predicate func(T) bool) (bool, error) {
	var matched bool
	err := s.forEachItem(ctx, func(v T) bool {
		if predicate(v) {
			matched = true
			return false
		}
		return true
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

func (s *stream[T]) Close() error {
	c := s.core
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}

	c.mu.Lock()
	if c.cancelExec != nil {
		c.cancelExec()
		c.cancelExec = nil
	}
	c.mu.Unlock()

	if c.source != nil {
		return c.source.Close()
	}
	return nil
}

func (s *stream[T]) IsClosed() bool {
	return atomic.LoadInt32(&s.core.closed) != 0
}

// execute wires the source and pipeline stages together with channels and
// returns the channel carrying the final stage's output.
func (s *stream[T]) execute(ctx context.Context) (<-chan item[T], error) {
	c := s.core

	// closeCtx lets Close terminate the stage goroutines without treating the
	// shutdown as a stream failure.
	closeCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.cancelExec != nil {
		c.cancelExec()
	}
	c.cancelExec = cancel
	c.mu.Unlock()

	sourceCh := make(chan item[T], stageBuffer)
	go func() {
		defer close(sourceCh)
		for {
			select {
			case <-ctx.Done():
				sourceCh <- item[T]{err: ctx.Err()}
				return
			case <-closeCtx.Done():
				return
			default:
			}

			value, hasMore, err := c.source.Next(ctx)
			if err != nil {
				select {
				case <-closeCtx.Done():
					return
				default:
				}
				sourceCh <- item[T]{err: err}
				return
			}
			if !hasMore {
				sourceCh <- item[T]{end: true}
				return
			}

			select {
			case sourceCh <- item[T]{value: value}:
			case <-ctx.Done():
				sourceCh <- item[T]{err: ctx.Err()}
				return
			case <-closeCtx.Done():
				return
			}
		}
	}()

	current := (<-chan item[T])(sourceCh)
	for _, op := range s.pipeline {
		next := make(chan item[T], stageBuffer)
		go func(op operation[T], in <-chan item[T], out chan<- item[T]) {
			defer close(out)
			if err := op.apply(ctx, in, out); err != nil {
				select {
				case <-closeCtx.Done():
					return
				default:
				}
				out <- item[T]{err: err}
			}
		}(op, current, next)
		current = next
	}

	return current, nil
}
