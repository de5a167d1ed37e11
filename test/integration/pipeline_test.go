// Package integration exercises process pipelines, line streaming, and
// stream operators together, end to end.
package integration

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/goshell/internal/testutil"
	gserrors "github.com/vnykmshr/goshell/pkg/common/errors"
	"github.com/vnykmshr/goshell/pkg/exec/proc"
	"github.com/vnykmshr/goshell/pkg/exec/shell"
	"github.com/vnykmshr/goshell/pkg/streaming/stream"
)

func group(t *testing.T) *proc.Group {
	t.Helper()
	g := proc.NewGroup()
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestGenerateFilterAggregate(t *testing.T) {
	g := group(t)
	ctx := context.Background()

	// seq | grep even | wc: generate numbers, keep the even ones in-process,
	// feed them to an external consumer, and aggregate its output.
	numbers := stream.FromSlice([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}).
		Filter(func(n int) bool { return n%2 == 0 }).
		Map(func(n int) int { return n * n })

	var linesIn []string
	err := numbers.ForEach(ctx, func(n int) {
		linesIn = append(linesIn, strconv.Itoa(n))
	})
	testutil.AssertNoError(t, err)

	run, err := shell.Command("sort", "-n", "-r").
		WithGroup(g).
		WithInput(shell.InputLines).
		WithOutput(shell.OutputText).
		Start(ctx, shell.Lines(stream.FromSlice(linesIn)))
	testutil.AssertNoError(t, err)

	out, err := run.Text(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, out, "100\n64\n36\n16\n4\n")
}

func TestPipelineWithConcurrentPostProcessing(t *testing.T) {
	g := group(t)
	ctx := context.Background()

	var input strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&input, "host-%02d\n", i)
	}

	run, err := shell.Command("cat").WithGroup(g).WithInput(shell.InputText).
		PipeTo(shell.Command("sort").WithGroup(g)).
		Start(ctx, shell.Text(strings.TrimSuffix(input.String(), "\n")))
	testutil.AssertNoError(t, err)

	processed, err := run.Lines().
		MapConcurrent(8, func(_ context.Context, line string) (string, error) {
			time.Sleep(time.Millisecond)
			return strings.ToUpper(line), nil
		}).
		ToSlice(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(processed), 50)
	testutil.AssertEqual(t, processed[0], "HOST-00")
	testutil.AssertEqual(t, processed[49], "HOST-49")
}

func TestFailureCrossesProcessAndStreamLayers(t *testing.T) {
	g := group(t)
	ctx := context.Background()

	run, err := shell.Command("sh", "-c", "seq 1 3; exit 7").WithGroup(g).
		PipeTo(shell.Command("cat").WithGroup(g)).
		Start(ctx, shell.NoInput())
	testutil.AssertNoError(t, err)

	var got []int
	err = run.Lines().
		Map(strings.TrimSpace).
		ForEach(ctx, func(line string) {
			if n, convErr := strconv.Atoi(line); convErr == nil {
				got = append(got, n)
			}
		})

	testutil.AssertTrue(t, gserrors.IsUpstream(err), "exit status lost crossing the pipe")
	code, ok := gserrors.ExitCode(err)
	testutil.AssertTrue(t, ok, "exit code not recoverable from the failure chain")
	testutil.AssertEqual(t, code, 7)
	testutil.AssertEqual(t, len(got), 3)
}

func TestGroupCleansUpAbandonedPipeline(t *testing.T) {
	g := proc.NewGroup()
	ctx := context.Background()

	run, err := shell.Command("sh", "-c", "while :; do echo tick; sleep 1; done").
		WithGroup(g).
		Start(ctx, shell.NoInput())
	testutil.AssertNoError(t, err)

	first, found, err := run.Lines().First(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, found, "no output from the child")
	testutil.AssertEqual(t, first, "tick")

	// The consumer stopped early; closing the group must still terminate the
	// child and leave nothing tracked.
	testutil.AssertNoError(t, g.Close())
	testutil.AssertEqual(t, g.Len(), 0)
}
