package proc

import (
	"errors"
	"io"
	"syscall"
	"testing"
	"time"

	"github.com/vnykmshr/goshell/internal/testutil"
	gserrors "github.com/vnykmshr/goshell/pkg/common/errors"
)

func shell(script string) Command {
	return Command{Path: "sh", Args: []string{"-c", script}}
}

func TestWaitSuccess(t *testing.T) {
	g := NewGroup()
	defer func() { _ = g.Close() }()

	p, err := g.Start(shell("exit 0"), Options{})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, p.Wait())
	testutil.AssertEqual(t, g.Len(), 0)
	testutil.AssertTrue(t, p.Released(), "handle not released after Wait")
}

func TestWaitExitError(t *testing.T) {
	g := NewGroup()
	defer func() { _ = g.Close() }()

	p, err := g.Start(shell("exit 3"), Options{})
	testutil.AssertNoError(t, err)

	err = p.Wait()
	var xe *gserrors.ExitError
	if !errors.As(err, &xe) {
		t.Fatalf("Wait() = %v, want ExitError", err)
	}
	testutil.AssertEqual(t, xe.Code, 3)
	testutil.AssertEqual(t, xe.Pid, p.Pid())

	code, ok := gserrors.ExitCode(err)
	testutil.AssertTrue(t, ok, "ExitCode did not recognize the error")
	testutil.AssertEqual(t, code, 3)
}

func TestWaitSignalError(t *testing.T) {
	g := NewGroup()
	defer func() { _ = g.Close() }()

	p, err := g.Start(shell("sleep 30"), Options{})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, syscall.Kill(p.Pid(), syscall.SIGTERM))

	err = p.Wait()
	var se *gserrors.SignalError
	if !errors.As(err, &se) {
		t.Fatalf("Wait() = %v, want SignalError", err)
	}
	testutil.AssertEqual(t, se.Signal, "terminated")
}

func TestWaitRepeatable(t *testing.T) {
	g := NewGroup()
	defer func() { _ = g.Close() }()

	p, err := g.Start(shell("exit 7"), Options{})
	testutil.AssertNoError(t, err)

	first := p.Wait()
	second := p.Wait()
	if !errors.Is(second, first) && second.Error() != first.Error() {
		t.Fatalf("second Wait() = %v, want %v", second, first)
	}
}

func TestKillIsNotAFailure(t *testing.T) {
	g := NewGroup()
	defer func() { _ = g.Close() }()

	p, err := g.Start(shell("sleep 30"), Options{})
	testutil.AssertNoError(t, err)

	p.Kill()
	p.Kill() // idempotent

	testutil.AssertNoError(t, p.Wait())
	testutil.AssertEqual(t, g.Len(), 0)
	testutil.AssertTrue(t, p.Released(), "handle not released after Kill")
}

func TestStdoutPipe(t *testing.T) {
	g := NewGroup()
	defer func() { _ = g.Close() }()

	p, err := g.Start(shell(`printf 'hello'`), Options{Stdout: true})
	testutil.AssertNoError(t, err)

	out, err := io.ReadAll(p.Stdout())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(out), "hello")
	testutil.AssertNoError(t, p.Wait())
}

func TestWaitWithOnlyStdoutPiped(t *testing.T) {
	g := NewGroup()
	defer func() { _ = g.Close() }()

	// Stdin and stderr were never requested; reaping must tolerate the
	// absent pipe wrappers.
	p, err := g.Start(shell("echo hi"), Options{Stdout: true})
	testutil.AssertNoError(t, err)

	out, err := io.ReadAll(p.Stdout())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(out), "hi\n")
	testutil.AssertNoError(t, p.Wait())
	testutil.AssertTrue(t, p.Released(), "handle not released after Wait")
}

func TestStdinToStdout(t *testing.T) {
	g := NewGroup()
	defer func() { _ = g.Close() }()

	p, err := g.Start(Command{Path: "cat"}, Options{Stdin: true, Stdout: true})
	testutil.AssertNoError(t, err)

	_, err = p.Stdin().Write([]byte("round trip"))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, p.Stdin().Close())

	out, err := io.ReadAll(p.Stdout())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(out), "round trip")
	testutil.AssertNoError(t, p.Wait())
}

func TestCaptureStderr(t *testing.T) {
	g := NewGroup()
	defer func() { _ = g.Close() }()

	p, err := g.Start(shell(`echo oops >&2`), Options{CaptureStderr: true})
	testutil.AssertNoError(t, err)

	out, err := io.ReadAll(p.Stderr())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(out), "oops\n")
	testutil.AssertNoError(t, p.Wait())
}

func TestStartEmptyPath(t *testing.T) {
	g := NewGroup()
	defer func() { _ = g.Close() }()

	_, err := g.Start(Command{}, Options{})
	testutil.AssertErrorIs(t, err, gserrors.ErrInvalidConfiguration)
}

func TestStartMissingBinary(t *testing.T) {
	g := NewGroup()
	defer func() { _ = g.Close() }()

	_, err := g.Start(Command{Path: "goshell-no-such-binary"}, Options{})
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, g.Len(), 0)
}

func TestWorkingDirectory(t *testing.T) {
	g := NewGroup()
	defer func() { _ = g.Close() }()

	dir := t.TempDir()
	p, err := g.Start(Command{Path: "pwd", Dir: dir}, Options{Stdout: true})
	testutil.AssertNoError(t, err)

	out, err := io.ReadAll(p.Stdout())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(out), dir+"\n")
	testutil.AssertNoError(t, p.Wait())
}

func TestReleaseIdempotent(t *testing.T) {
	g := NewGroup()
	defer func() { _ = g.Close() }()

	p, err := g.Start(shell("exit 0"), Options{})
	testutil.AssertNoError(t, err)

	p.Release()
	p.Release()
	testutil.AssertEqual(t, g.Len(), 0)
}

func processGone(pid int) bool {
	err := syscall.Kill(pid, 0)
	return errors.Is(err, syscall.ESRCH)
}

func TestGroupCloseTerminatesEverything(t *testing.T) {
	g := NewGroup()

	pids := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		p, err := g.Start(shell("sleep 60"), Options{})
		testutil.AssertNoError(t, err)
		pids = append(pids, p.Pid())
	}
	testutil.AssertEqual(t, g.Len(), 3)

	testutil.AssertNoError(t, g.Close())
	testutil.AssertEqual(t, g.Len(), 0)

	for _, pid := range pids {
		pid := pid
		testutil.Eventually(t, func() bool { return processGone(pid) },
			5*time.Second, 10*time.Millisecond)
	}
}

func TestGroupCloseIdempotent(t *testing.T) {
	g := NewGroup()
	testutil.AssertNoError(t, g.Close())
	testutil.AssertNoError(t, g.Close())
}

func TestStartAfterClose(t *testing.T) {
	g := NewGroup()
	testutil.AssertNoError(t, g.Close())

	_, err := g.Start(shell("exit 0"), Options{})
	testutil.AssertErrorIs(t, err, gserrors.ErrClosed)
}

func TestDefaultGroupLifecycle(t *testing.T) {
	defer func() { _ = CloseDefault() }()

	first := Default()
	testutil.AssertTrue(t, first == Default(), "Default() not stable across calls")

	p, err := first.Start(shell("sleep 60"), Options{})
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, CloseDefault())
	testutil.Eventually(t, func() bool { return processGone(p.Pid()) },
		5*time.Second, 10*time.Millisecond)

	second := Default()
	testutil.AssertTrue(t, second != first, "Default() not rebuilt after CloseDefault")
}
