package stream

import (
	"context"
	"sync/atomic"
)

// sliceSource implements Source for slices.
type sliceSource[T any] struct {
	slice []T
	index int64
}

func (s *sliceSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	i := atomic.AddInt64(&s.index, 1) - 1
	if i >= int64(len(s.slice)) {
		return zero, false, nil
	}
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	default:
		return s.slice[i], true, nil
	}
}

func (s *sliceSource[T]) Close() error { return nil }

// channelSource implements Source for channels.
type channelSource[T any] struct {
	ch <-chan T
}

func (s *channelSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case value, ok := <-s.ch:
		if !ok {
			return zero, false, nil
		}
		return value, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (s *channelSource[T]) Close() error { return nil }

// funcSource adapts a pair of closures into a Source.
type funcSource[T any] struct {
	next  func(ctx context.Context) (T, bool, error)
	close func() error
}

func (s *funcSource[T]) Next(ctx context.Context) (T, bool, error) {
	return s.next(ctx)
}

func (s *funcSource[T]) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// generatorSource implements Source for generator functions.
type generatorSource[T any] struct {
	generator func() T
}

func (s *generatorSource[T]) Next(ctx context.Context) (T, bool, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	default:
		return s.generator(), true, nil
	}
}

func (s *generatorSource[T]) Close() error { return nil }

// emptySource implements Source for empty streams.
type emptySource[T any] struct{}

func (s *emptySource[T]) Next(context.Context) (T, bool, error) {
	var zero T
	return zero, false, nil
}

func (s *emptySource[T]) Close() error { return nil }

// FromSlice creates a Stream over the elements of a slice.
func FromSlice[T any](slice []T) Stream[T] {
	return New[T](&sliceSource[T]{slice: slice})
}

// FromChannel creates a Stream reading from a channel until it is closed.
func FromChannel[T any](ch <-chan T) Stream[T] {
	return New[T](&channelSource[T]{ch: ch})
}

// FromFunc creates a Stream pulling elements from next; close, if non-nil, is
// invoked when the stream is closed.
func FromFunc[T any](next func(ctx context.Context) (T, bool, error), close func() error) Stream[T] {
	return New[T](&funcSource[T]{next: next, close: close})
}

// Generate creates an infinite Stream from a generator function.
func Generate[T any](generator func() T) Stream[T] {
	return New[T](&generatorSource[T]{generator: generator})
}

// Empty creates a Stream with no elements.
func Empty[T any]() Stream[T] {
	return New[T](&emptySource[T]{})
}

// Fail creates a Stream that produces the given error on first consumption.
// It is how a producer hands an already-known failure to a consumer while
// keeping the deferred error discipline.
func Fail[T any](err error) Stream[T] {
	return New[T](&errorSource[T]{err: err})
}
