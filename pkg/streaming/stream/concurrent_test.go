package stream

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/goshell/internal/testutil"
)

func TestMapConcurrentPreservesOrder(t *testing.T) {
	input := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	s := FromSlice(input).MapConcurrent(4, func(_ context.Context, x int) (int, error) {
		// Later elements finish earlier, exercising the reorder buffer.
		time.Sleep(time.Duration(11-x) * time.Millisecond)
		return x * 10, nil
	})

	result, err := s.ToSlice(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(result), len(input))
	for i, v := range input {
		testutil.AssertEqual(t, result[i], v*10)
	}
}

func TestMapConcurrentUnorderedIsPermutation(t *testing.T) {
	input := []int{1, 2, 3, 4, 5, 6, 7, 8}

	s := FromSlice(input).MapConcurrentUnordered(4, func(_ context.Context, x int) (int, error) {
		time.Sleep(time.Duration(9-x) * time.Millisecond)
		return x, nil
	})

	result, err := s.ToSlice(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(result), len(input))

	sort.Ints(result)
	for i, v := range input {
		testutil.AssertEqual(t, result[i], v)
	}
}

func TestMapConcurrentWidthBound(t *testing.T) {
	const width = 3
	var inFlight, maxInFlight int64

	s := FromSlice(make([]int, 50)).MapConcurrent(width, func(_ context.Context, x int) (int, error) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			prev := atomic.LoadInt64(&maxInFlight)
			if n <= prev || atomic.CompareAndSwapInt64(&maxInFlight, prev, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return x, nil
	})

	_, err := s.ToSlice(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, atomic.LoadInt64(&maxInFlight) <= width,
		"more mapper invocations in flight than the configured width")
}

func TestMapConcurrentError(t *testing.T) {
	boom := errors.New("mapper failed")
	var started int64

	s := FromSlice([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}).
		MapConcurrent(2, func(_ context.Context, x int) (int, error) {
			atomic.AddInt64(&started, 1)
			if x == 3 {
				return 0, boom
			}
			time.Sleep(20 * time.Millisecond)
			return x, nil
		})

	_, err := s.ToSlice(context.Background())
	testutil.AssertErrorIs(t, err, boom)

	// After the failure no further elements are submitted; only work already
	// in flight when the error surfaced may have run.
	testutil.AssertTrue(t, atomic.LoadInt64(&started) < 10,
		"submission did not stop after the first error")
}

func TestMapConcurrentUnorderedError(t *testing.T) {
	boom := errors.New("mapper failed")

	s := FromSlice([]int{1, 2, 3, 4}).
		MapConcurrentUnordered(2, func(_ context.Context, x int) (int, error) {
			if x == 2 {
				return 0, boom
			}
			return x, nil
		})

	_, err := s.ToSlice(context.Background())
	testutil.AssertErrorIs(t, err, boom)
}

func TestMapConcurrentInvalidWidth(t *testing.T) {
	s := FromSlice([]int{1, 2, 3}).MapConcurrent(0, func(_ context.Context, x int) (int, error) {
		return x, nil
	})

	_, err := s.ToSlice(context.Background())
	testutil.AssertError(t, err)
}

func TestMapConcurrentAfterFilter(t *testing.T) {
	s := FromSlice([]int{1, 2, 3, 4, 5, 6}).
		Filter(func(x int) bool { return x%2 == 0 }).
		MapConcurrent(2, func(_ context.Context, x int) (int, error) {
			return x + 1, nil
		})

	result, err := s.ToSlice(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(result), 3)
	testutil.AssertEqual(t, result[0], 3)
	testutil.AssertEqual(t, result[2], 7)
}
