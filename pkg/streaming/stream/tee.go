package stream

import (
	"context"
	"sync"
)

// Tee consumes the stream and returns n independent cursors over duplicated
// data. The underlying source is drained once, by a pump started lazily when
// the first cursor is driven; every element is appended to a per-cursor
// buffer, so a fully drained cursor never deadlocks a slower sibling.
func (s *stream[T]) Tee(n int) []Stream[T] {
	if n <= 0 {
		return nil
	}
	if err := s.begin(); err != nil {
		// The usage error surfaces when any cursor is driven, matching the
		// deferred error discipline of the rest of the pipeline.
		cursors := make([]Stream[T], n)
		for i := range cursors {
			cursors[i] = New[T](&errorSource[T]{err: err})
		}
		return cursors
	}

	state := &teeState[T]{upstream: s, open: n}
	state.buffers = make([]*teeBuffer[T], n)
	cursors := make([]Stream[T], n)
	for i := range cursors {
		buf := &teeBuffer[T]{
			state:  state,
			notify: make(chan struct{}, 1),
		}
		state.buffers[i] = buf
		cursors[i] = New[T](buf)
	}
	return cursors
}

// teeState owns the single pump over the upstream stream.
type teeState[T any] struct {
	upstream *stream[T]
	pump     sync.Once

	mu     sync.Mutex
	open   int // cursors not yet closed
	cancel context.CancelFunc

	buffers []*teeBuffer[T]
}

// start launches the pump on first use.
func (st *teeState[T]) start() {
	st.pump.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		st.mu.Lock()
		st.cancel = cancel
		st.mu.Unlock()

		go func() {
			ch, err := st.upstream.execute(ctx)
			if err != nil {
				st.broadcast(item[T]{err: err})
				return
			}
			for el := range ch {
				st.broadcast(el)
				if el.err != nil || el.end {
					break
				}
				select {
				case <-ctx.Done():
					st.broadcast(item[T]{end: true})
					return
				default:
				}
			}
		}()
	})
}

func (st *teeState[T]) broadcast(el item[T]) {
	for _, buf := range st.buffers {
		buf.push(el)
	}
}

// cursorClosed releases the upstream once every cursor has been closed.
func (st *teeState[T]) cursorClosed() {
	st.mu.Lock()
	st.open--
	done := st.open == 0
	cancel := st.cancel
	st.mu.Unlock()

	if done {
		if cancel != nil {
			cancel()
		}
		_ = st.upstream.Close()
	}
}

// teeBuffer is one cursor's unbounded queue of duplicated elements. It
// implements Source so a cursor is a full Stream with all operators available.
type teeBuffer[T any] struct {
	state *teeState[T]

	mu     sync.Mutex
	queue  []item[T]
	closed bool

	// notify carries at most one token; push refills it after every append and
	// the single consumer re-checks the queue after each wake.
	notify chan struct{}
}

func (b *teeBuffer[T]) push(el item[T]) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, el)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *teeBuffer[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	b.state.start()

	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			el := b.queue[0]
			b.queue = b.queue[1:]
			b.mu.Unlock()

			if el.err != nil {
				return zero, false, el.err
			}
			if el.end {
				return zero, false, nil
			}
			return el.value, true, nil
		}
		b.mu.Unlock()

		select {
		case <-b.notify:
		case <-ctx.Done():
			return zero, false, ctx.Err()
		}
	}
}

func (b *teeBuffer[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.queue = nil
	b.mu.Unlock()

	b.state.cursorClosed()
	return nil
}

// errorSource fails on first pull. Used for cursors derived from a stream
// that was already consumed.
type errorSource[T any] struct {
	err error
}

func (s *errorSource[T]) Next(context.Context) (T, bool, error) {
	var zero T
	return zero, false, s.err
}

func (s *errorSource[T]) Close() error { return nil }
