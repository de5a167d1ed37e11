package proc

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	gserrors "github.com/vnykmshr/goshell/pkg/common/errors"
	"github.com/vnykmshr/goshell/pkg/common/iox"
)

// Command describes a process to spawn. No shell interpretation is performed;
// Path and Args reach the child verbatim.
type Command struct {
	// Path is the command name or path, resolved against PATH if bare.
	Path string

	// Args are the command arguments, not including the command name.
	Args []string

	// Dir is the working directory. Empty means inherit.
	Dir string

	// Env is the child environment. Nil means inherit.
	Env []string
}

// Options selects which standard streams are piped to the parent.
type Options struct {
	// Stdin opens a pipe to the child's standard input.
	Stdin bool

	// Stdout opens a pipe from the child's standard output. When false the
	// child's output is discarded.
	Stdout bool

	// CaptureStderr opens a pipe from the child's standard error. When false
	// standard error is inherited from the parent.
	CaptureStderr bool
}

// Process is a handle on one spawned child: its piped standard streams, all
// behind close-once wrappers, and its exit status.
type Process struct {
	pid     int
	cmd     *exec.Cmd
	stdin   *iox.WriteCloser
	stdout  *iox.ReadCloser
	stderr  *iox.ReadCloser
	group   *Group
	token   uint64
	started time.Time

	waitOnce sync.Once
	waitErr  error
	released int32 // atomic
	killed   int32 // atomic
}

// Pid returns the OS process id.
func (p *Process) Pid() int {
	return p.pid
}

// Stdin returns the pipe to the child's standard input, or nil if none was
// requested.
func (p *Process) Stdin() *iox.WriteCloser {
	return p.stdin
}

// Stdout returns the pipe from the child's standard output, or nil if none
// was requested.
func (p *Process) Stdout() *iox.ReadCloser {
	return p.stdout
}

// Stderr returns the pipe from the child's standard error, or nil when
// standard error is inherited.
func (p *Process) Stderr() *iox.ReadCloser {
	return p.stderr
}

// Released reports whether the handle has been released.
func (p *Process) Released() bool {
	return atomic.LoadInt32(&p.released) != 0
}

// Wait reaps the child and returns its exit status translated into the error
// taxonomy: nil for exit code 0, ExitError for a non-zero code, SignalError
// for death by signal. Safe to call more than once; every call observes the
// same result. A process that was killed through this handle reports nil,
// since shutting a child down is not itself a failure.
func (p *Process) Wait() error {
	p.waitOnce.Do(p.reap)
	if atomic.LoadInt32(&p.killed) != 0 {
		return nil
	}
	return p.waitErr
}

// reap runs under waitOnce. It collects the exit status, closes the remaining
// stream wrappers, and drops the handle from its group.
func (p *Process) reap() {
	err := p.cmd.Wait()
	p.waitErr = p.classify(err)

	iox.CloseQuietly(p.stdin)
	iox.CloseQuietly(p.stdout)
	iox.CloseQuietly(p.stderr)
	atomic.StoreInt32(&p.released, 1)

	if p.group != nil {
		p.group.remove(p, p.outcome())
	}
}

func (p *Process) classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return gserrors.Chain("wait for process", err)
	}
	if ws, ok := ee.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return &gserrors.SignalError{Pid: p.pid, Signal: ws.Signal().String()}
	}
	return &gserrors.ExitError{Pid: p.pid, Code: ee.ProcessState.ExitCode()}
}

func (p *Process) outcome() string {
	switch {
	case atomic.LoadInt32(&p.killed) != 0:
		return "killed"
	case p.waitErr == nil:
		return "success"
	default:
		var se *gserrors.SignalError
		if errors.As(p.waitErr, &se) {
			return "signal"
		}
		var xe *gserrors.ExitError
		if errors.As(p.waitErr, &xe) {
			return "exit"
		}
		return "error"
	}
}

// Kill forcibly terminates the child and releases the handle. Errors from
// signalling or closing a dying child are swallowed; they are expected
// collateral of cancellation. Safe from any state and safe to repeat.
func (p *Process) Kill() {
	if !atomic.CompareAndSwapInt32(&p.killed, 0, 1) {
		return
	}
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.Release()
}

// Release closes all stream wrappers, reaps the child so no zombie remains,
// and removes the handle from its group. Idempotent.
func (p *Process) Release() {
	if !atomic.CompareAndSwapInt32(&p.released, 0, 1) {
		return
	}
	iox.CloseQuietly(p.stdin)
	iox.CloseQuietly(p.stdout)
	iox.CloseQuietly(p.stderr)
	p.waitOnce.Do(p.reapQuietly)
}

// reapQuietly runs under waitOnce on the forced-shutdown path, where the exit
// status is not reported to anyone.
func (p *Process) reapQuietly() {
	_ = p.cmd.Wait()
	if p.group != nil {
		p.group.remove(p, p.outcomeForced())
	}
}

func (p *Process) outcomeForced() string {
	if atomic.LoadInt32(&p.killed) != 0 {
		return "killed"
	}
	return "released"
}

// buildCmd prepares the exec.Cmd and pipe wrappers without starting the child.
func buildCmd(cmd Command, opts Options) (*Process, error) {
	c := exec.Command(cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	if cmd.Env != nil {
		c.Env = cmd.Env
	}

	p := &Process{cmd: c}

	if opts.Stdin {
		w, err := c.StdinPipe()
		if err != nil {
			return nil, gserrors.Chain("open stdin pipe", err)
		}
		p.stdin = iox.NewWriteCloser(w)
	}
	if opts.Stdout {
		r, err := c.StdoutPipe()
		if err != nil {
			return nil, gserrors.Chain("open stdout pipe", err)
		}
		p.stdout = iox.NewReadCloser(r)
	}
	if opts.CaptureStderr {
		r, err := c.StderrPipe()
		if err != nil {
			return nil, gserrors.Chain("open stderr pipe", err)
		}
		p.stderr = iox.NewReadCloser(r)
	} else {
		c.Stderr = os.Stderr
	}

	return p, nil
}
