package shell

import (
	"bytes"
	"context"
	"io"
	"sync"

	gserrors "github.com/vnykmshr/goshell/pkg/common/errors"
	"github.com/vnykmshr/goshell/pkg/exec/proc"
	"github.com/vnykmshr/goshell/pkg/metrics"
	"github.com/vnykmshr/goshell/pkg/streaming/lines"
	"github.com/vnykmshr/goshell/pkg/streaming/stream"
)

// Cmd is a reusable command definition: the program to spawn plus the handler
// pair adapting caller data to its standard streams. The pair (input shape,
// output shape) is fixed when the Cmd is built and reused across invocations
// with different input values.
type Cmd struct {
	command       proc.Command
	input         InputKind
	output        OutputMode
	captureStderr bool
	group         *proc.Group
	name          string
	metrics       *metrics.Registry
}

// Command defines a command. The default handler pair takes no input and
// exposes output as a line stream.
func Command(path string, args ...string) *Cmd {
	return &Cmd{
		command: proc.Command{Path: path, Args: args},
		input:   InputNone,
		output:  OutputLines,
	}
}

// WithDir sets the working directory.
func (c *Cmd) WithDir(dir string) *Cmd {
	c.command.Dir = dir
	return c
}

// WithEnv sets the child environment. Nil inherits the parent's.
func (c *Cmd) WithEnv(env []string) *Cmd {
	c.command.Env = env
	return c
}

// WithInput declares the input shape this command accepts.
func (c *Cmd) WithInput(kind InputKind) *Cmd {
	c.input = kind
	return c
}

// WithOutput selects the output shape this command produces.
func (c *Cmd) WithOutput(mode OutputMode) *Cmd {
	c.output = mode
	return c
}

// WithStderrCapture pipes the child's standard error and drains it as a line
// stream instead of inheriting it.
func (c *Cmd) WithStderrCapture() *Cmd {
	c.captureStderr = true
	return c
}

// WithGroup tracks spawned processes in g instead of the default group.
func (c *Cmd) WithGroup(g *proc.Group) *Cmd {
	c.group = g
	return c
}

// WithMetrics records pipe activity for this command under the given name.
// A nil registry means metrics.DefaultRegistry.
func (c *Cmd) WithMetrics(name string, m *metrics.Registry) *Cmd {
	if m == nil {
		m = metrics.DefaultRegistry
	}
	c.name = name
	c.metrics = m
	return c
}

// clone returns a copy so a pipeline can adjust a stage without mutating the
// caller's definition.
func (c *Cmd) clone() *Cmd {
	dup := *c
	return &dup
}

// validate checks the invocation input against the declared shape. Violations
// are configuration errors raised before any process is spawned.
func (c *Cmd) validate(in Input) error {
	if c.input == InputNone {
		if in.kind != InputNone {
			return gserrors.NewValidationError("shell", "input", in.kind.String(),
				"command takes no input")
		}
		return nil
	}
	if !in.present() {
		return gserrors.Chain("run "+c.command.Path, gserrors.ErrNoInput)
	}
	if in.kind != c.input {
		return gserrors.NewValidationError("shell", "input", in.kind.String(),
			"command accepts "+c.input.String()+" input").
			WithHint("construct the input with the matching shell constructor")
	}
	return nil
}

// Run is one invocation of a Cmd: the live process handle plus the caller's
// view of its output in the shape fixed by the Cmd.
type Run struct {
	proc *proc.Process
	cmd  *Cmd

	lines  stream.Stream[string]
	chunks stream.Stream[[]byte]
	stderr stream.Stream[string]

	mu       sync.Mutex
	upstream error
	pumpDone chan struct{}
}

// Start validates in against the command's declared input shape, spawns the
// process, and wires its streams. For streaming output modes the returned Run
// may be consumed while the child is still running.
func (c *Cmd) Start(ctx context.Context, in Input) (*Run, error) {
	if err := c.validate(in); err != nil {
		return nil, err
	}

	group := c.group
	if group == nil {
		group = proc.Default()
	}

	opts := proc.Options{
		Stdin:         c.input != InputNone,
		Stdout:        c.output != OutputDiscard,
		CaptureStderr: c.captureStderr,
	}
	p, err := group.Start(c.command, opts)
	if err != nil {
		return nil, err
	}

	r := &Run{proc: p, cmd: c, pumpDone: make(chan struct{})}

	switch c.output {
	case OutputLines:
		r.lines = stream.New[string](&exitSource[string]{
			inner: lines.NewLineSource(p.Stdout()),
			run:   r,
		})
	case OutputText, OutputBytes, OutputChunks:
		r.chunks = stream.New[[]byte](&exitSource[[]byte]{
			inner: lines.NewChunkSource(p.Stdout(), 0),
			run:   r,
		})
	}

	if c.captureStderr {
		q := newLineQueue()
		r.stderr = stream.New[string](q)
		go drainStderr(p, q)
	}

	if opts.Stdin {
		go r.pumpInput(ctx, in)
	} else {
		close(r.pumpDone)
	}

	return r, nil
}

// drainStderr pulls captured stderr lines into the queue so the child's
// stderr pipe never fills, whether or not the caller reads the capture.
func drainStderr(p *proc.Process, q *lineQueue) {
	src := lines.NewLineSource(p.Stderr())
	for {
		line, ok, err := src.Next(context.Background())
		if err != nil || !ok {
			q.finish(nil)
			return
		}
		q.push(line)
	}
}

// pumpInput writes the invocation input to the child and closes its stdin.
// A failure of the input stream itself is recorded as this run's upstream
// failure; a failed write means the child stopped reading, which is the
// child's own story and is swallowed here.
func (r *Run) pumpInput(ctx context.Context, in Input) {
	defer close(r.pumpDone)

	w := r.proc.Stdin()
	counted := &countingWriter{w: w}
	streamErr, _ := in.writeTo(ctx, counted)

	// Record the failure before closing stdin: the close is what lets the
	// child finish, and its consumer must find the upstream cause waiting.
	if streamErr != nil {
		r.setUpstream(streamErr)
	}
	_ = w.Close()

	if c := r.cmd; c.metrics != nil {
		c.metrics.PipeBytesCopied.WithLabelValues(c.name).Add(float64(counted.n))
		if streamErr != nil {
			c.metrics.PipeFailures.WithLabelValues(c.name).Inc()
		}
	}
}

func (r *Run) setUpstream(err error) {
	r.mu.Lock()
	if r.upstream == nil {
		r.upstream = err
	}
	r.mu.Unlock()
}

func (r *Run) upstreamErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upstream
}

// Process returns the underlying process handle.
func (r *Run) Process() *proc.Process {
	return r.proc
}

// Kill forcibly terminates this run's process.
func (r *Run) Kill() {
	r.proc.Kill()
}

// Lines returns the live line stream for a Cmd defined with OutputLines.
// The child's exit status surfaces as the stream's final error, after all
// output has been delivered.
func (r *Run) Lines() stream.Stream[string] {
	if r.lines == nil {
		return stream.Fail[string](r.modeMismatch(OutputLines))
	}
	return r.lines
}

// Chunks returns the live chunk stream for a Cmd defined with OutputChunks.
func (r *Run) Chunks() stream.Stream[[]byte] {
	if r.cmd.output != OutputChunks || r.chunks == nil {
		return stream.Fail[[]byte](r.modeMismatch(OutputChunks))
	}
	return r.chunks
}

// Stderr returns the captured stderr line stream, or a failed stream when the
// Cmd did not opt into capture.
func (r *Run) Stderr() stream.Stream[string] {
	if r.stderr == nil {
		return stream.Fail[string](gserrors.NewValidationError("shell", "stderr", nil,
			"stderr capture was not enabled").
			WithHint("define the command with WithStderrCapture"))
	}
	return r.stderr
}

// Text awaits the child and returns its entire output as a string, for a Cmd
// defined with OutputText.
func (r *Run) Text(ctx context.Context) (string, error) {
	if r.cmd.output != OutputText {
		return "", r.modeMismatch(OutputText)
	}
	data, err := r.collect(ctx)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Bytes awaits the child and returns its entire output as one byte slice,
// for a Cmd defined with OutputBytes.
func (r *Run) Bytes(ctx context.Context) ([]byte, error) {
	if r.cmd.output != OutputBytes {
		return nil, r.modeMismatch(OutputBytes)
	}
	return r.collect(ctx)
}

func (r *Run) collect(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	err := r.chunks.ForEach(ctx, func(chunk []byte) {
		buf.Write(chunk)
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Wait blocks until the input has been fully written and the child has
// exited, then returns the run's status: an upstream failure if the input
// stream failed, otherwise the child's exit error, if any. Intended for
// OutputDiscard commands; streaming consumers receive the same status at the
// end of their stream instead.
func (r *Run) Wait() error {
	<-r.pumpDone
	if up := r.upstreamErr(); up != nil {
		r.proc.Release()
		return gserrors.Upstream(up)
	}
	return r.proc.Wait()
}

func (r *Run) modeMismatch(want OutputMode) error {
	return gserrors.NewValidationError("shell", "output", r.cmd.output.String(),
		"command produces "+r.cmd.output.String()+" output, not "+want.String()).
		WithHint("define the command with WithOutput(" + want.String() + ")")
}

// countingWriter counts bytes on their way to the child's stdin.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
