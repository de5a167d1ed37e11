package stream

import (
	"context"
	"sync"

	"github.com/vnykmshr/goshell/pkg/common/validation"
)

// concurrentMapOperation applies a mapper with a bounded number of in-flight
// invocations. The bound is a counting semaphore over dispatch; no task queue
// exists beyond it.
type concurrentMapOperation[T any] struct {
	width   int
	ordered bool
	mapper  func(context.Context, T) (T, error)
}

type concurrentResult[T any] struct {
	seq   int64
	value T
	err   error
}

// drain consumes leftover results so in-flight mapper goroutines can exit
// after the consumer has abandoned the stream.
func drain[T any](results <-chan concurrentResult[T]) {
	for range results {
	}
}

func (o *concurrentMapOperation[T]) apply(ctx context.Context, in <-chan item[T], out chan<- item[T]) error {
	if err := validation.Positive("stream", "width", o.width); err != nil {
		return err
	}

	results := make(chan concurrentResult[T])
	stop := make(chan struct{})
	var stopOnce sync.Once

	// tail is the error or end marker that terminated the input. It is written
	// by the dispatcher before results is closed, which orders it before the
	// reader below observes the close.
	var tail item[T]

	go func() {
		var wg sync.WaitGroup
		defer func() {
			wg.Wait()
			close(results)
		}()

		sem := make(chan struct{}, o.width)
		var seq int64
		for el := range in {
			if el.err != nil || el.end {
				tail = el
				if el.end {
					return
				}
				continue
			}

			select {
			case <-stop:
				// A mapper already failed; stop submitting, keep draining the
				// input so upstream stages are not blocked.
				continue
			case <-ctx.Done():
				tail = item[T]{err: ctx.Err()}
				return
			case sem <- struct{}{}:
			}

			wg.Add(1)
			go func(seq int64, value T) {
				defer wg.Done()
				defer func() { <-sem }()
				mapped, err := o.mapper(ctx, value)
				results <- concurrentResult[T]{seq: seq, value: mapped, err: err}
			}(seq, el.value)
			seq++
		}
	}()

	var (
		firstErr error
		pending  map[int64]concurrentResult[T]
		next     int64
	)
	if o.ordered {
		pending = make(map[int64]concurrentResult[T])
	}

	for r := range results {
		if firstErr != nil {
			continue // drain in-flight results after a failure
		}
		if r.err != nil {
			firstErr = r.err
			stopOnce.Do(func() { close(stop) })
			continue
		}

		if !o.ordered {
			if err := emit(ctx, out, item[T]{value: r.value}); err != nil {
				go drain(results)
				return err
			}
			continue
		}

		pending[r.seq] = r
		for {
			p, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := emit(ctx, out, item[T]{value: p.value}); err != nil {
				go drain(results)
				return err
			}
		}
	}

	if firstErr != nil {
		return firstErr
	}
	if tail.err != nil || tail.end {
		out <- tail
	}
	return nil
}

func (s *stream[T]) MapConcurrent(width int, mapper func(context.Context, T) (T, error)) Stream[T] {
	return s.derive(&concurrentMapOperation[T]{width: width, ordered: true, mapper: mapper})
}

func (s *stream[T]) MapConcurrentUnordered(width int, mapper func(context.Context, T) (T, error)) Stream[T] {
	return s.derive(&concurrentMapOperation[T]{width: width, ordered: false, mapper: mapper})
}
