package stream_test

import (
	"context"
	"fmt"

	"github.com/vnykmshr/goshell/pkg/streaming/stream"
)

func ExampleFromSlice() {
	s := stream.FromSlice([]int{1, 2, 3, 4, 5, 6}).
		Filter(func(x int) bool { return x%2 == 0 }).
		Map(func(x int) int { return x * x })

	result, _ := s.ToSlice(context.Background())
	fmt.Println(result)
	// Output: [4 16 36]
}

func ExampleStream_Tee() {
	cursors := stream.FromSlice([]int{1, 2, 3, 4, 5}).Tee(2)

	count, _ := cursors[0].Count(context.Background())
	sum, _ := cursors[1].Reduce(context.Background(), 0, func(a, b int) int { return a + b })

	fmt.Println(count, sum)
	// Output: 5 15
}

func ExampleStream_MapConcurrent() {
	s := stream.FromSlice([]string{"alpha", "beta", "gamma"}).
		MapConcurrent(2, func(_ context.Context, w string) (string, error) {
			return fmt.Sprintf("%s(%d)", w, len(w)), nil
		})

	result, _ := s.ToSlice(context.Background())
	fmt.Println(result)
	// Output: [alpha(5) beta(4) gamma(5)]
}
