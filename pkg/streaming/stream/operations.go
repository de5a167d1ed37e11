package stream

import (
	"context"
	"sync/atomic"
)

// operation is one recorded pipeline stage.
type operation[T any] interface {
	apply(ctx context.Context, in <-chan item[T], out chan<- item[T]) error
}

// emit sends el downstream, giving up if the context is canceled.
func emit[T any](ctx context.Context, out chan<- item[T], el item[T]) error {
	select {
	case out <- el:
		return nil
	case <-ctx.Done():
		out <- item[T]{err: ctx.Err()}
		return ctx.Err()
	}
}

// forwardValues pulls from in, forwarding error and end markers unchanged and
// handing plain values to fn. fn returns the value to emit and whether to
// emit it at all.
func forwardValues[T any](ctx context.Context, in <-chan item[T], out chan<- item[T], fn func(T) (T, bool)) error {
	for el := range in {
		if el.err != nil || el.end {
			out <- el
			if el.end {
				return nil
			}
			continue
		}

		select {
		case <-ctx.Done():
			out <- item[T]{err: ctx.Err()}
			return ctx.Err()
		default:
		}

		value, keep := fn(el.value)
		if !keep {
			continue
		}
		if err := emit(ctx, out, item[T]{value: value}); err != nil {
			return err
		}
	}
	return nil
}

type filterOperation[T any] struct {
	predicate func(T) bool
}

func (f *filterOperation[T]) apply(ctx context.Context, in <-chan item[T], out chan<- item[T]) error {
	return forwardValues(ctx, in, out, func(v T) (T, bool) {
		return v, f.predicate(v)
	})
}

type mapOperation[T any] struct {
	mapper func(T) T
}

func (m *mapOperation[T]) apply(ctx context.Context, in <-chan item[T], out chan<- item[T]) error {
	return forwardValues(ctx, in, out, func(v T) (T, bool) {
		return m.mapper(v), true
	})
}

type peekOperation[T any] struct {
	action func(T)
}

func (p *peekOperation[T]) apply(ctx context.Context, in <-chan item[T], out chan<- item[T]) error {
	return forwardValues(ctx, in, out, func(v T) (T, bool) {
		p.action(v)
		return v, true
	})
}

type skipOperation[T any] struct {
	count   int64
	skipped int64
}

func (s *skipOperation[T]) apply(ctx context.Context, in <-chan item[T], out chan<- item[T]) error {
	return forwardValues(ctx, in, out, func(v T) (T, bool) {
		return v, atomic.AddInt64(&s.skipped, 1) > s.count
	})
}

type limitOperation[T any] struct {
	maxSize int64
	count   int64
}

func (l *limitOperation[T]) apply(ctx context.Context, in <-chan item[T], out chan<- item[T]) error {
	for el := range in {
		if el.err != nil || el.end {
			out <- el
			if el.end {
				return nil
			}
			continue
		}

		n := atomic.AddInt64(&l.count, 1)
		if n > l.maxSize {
			out <- item[T]{end: true}
			return nil
		}
		if err := emit(ctx, out, el); err != nil {
			return err
		}
		if n == l.maxSize {
			out <- item[T]{end: true}
			return nil
		}
	}
	return nil
}

type flatMapOperation[T any] struct {
	mapper func(T) Stream[T]
}

func (f *flatMapOperation[T]) apply(ctx context.Context, in <-chan item[T], out chan<- item[T]) error {
	for el := range in {
		if el.err != nil || el.end {
			out <- el
			if el.end {
				return nil
			}
			continue
		}

		mapped := f.mapper(el.value)
		err := mapped.ForEach(ctx, func(v T) {
			// Emission errors surface again through ctx on the next element.
			_ = emit(ctx, out, item[T]{value: v})
		})
		if err != nil {
			out <- item[T]{err: err}
			return nil
		}
	}
	return nil
}

func (s *stream[T]) Filter(predicate func(T) bool) Stream[T] {
	return s.derive(&filterOperation[T]{predicate: predicate})
}

func (s *stream[T]) Map(mapper func(T) T) Stream[T] {
	return s.derive(&mapOperation[T]{mapper: mapper})
}

func (s *stream[T]) FlatMap(mapper func(T) Stream[T]) Stream[T] {
	return s.derive(&flatMapOperation[T]{mapper: mapper})
}

func (s *stream[T]) Skip(n int64) Stream[T] {
	return s.derive(&skipOperation[T]{count: n})
}

func (s *stream[T]) Limit(n int64) Stream[T] {
	return s.derive(&limitOperation[T]{maxSize: n})
}

func (s *stream[T]) Peek(action func(T)) Stream[T] {
	return s.derive(&peekOperation[T]{action: action})
}
