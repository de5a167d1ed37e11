package shell

import (
	"context"

	"github.com/vnykmshr/goshell/pkg/streaming/stream"
)

// Pipeline chains commands so each one's output feeds the next one's input.
// Inner links are byte streams regardless of the stages' declared shapes;
// only the first stage's input shape and the last stage's output shape face
// the caller. A failure anywhere upstream is attached to the next stage as
// an upstream failure and surfaces when the final output is consumed, after
// any output produced before the failure.
type Pipeline struct {
	stages []*Cmd
}

// PipeTo starts a pipeline from c into next.
func (c *Cmd) PipeTo(next *Cmd) *Pipeline {
	return &Pipeline{stages: []*Cmd{c, next}}
}

// PipeTo appends another stage. Chaining is unbounded; each stage only ever
// touches its immediate neighbor.
func (p *Pipeline) PipeTo(next *Cmd) *Pipeline {
	p.stages = append(p.stages, next)
	return p
}

// Start validates in against the first stage, spawns every stage, and wires
// the links. The returned Run is the final stage's; consuming it drives the
// whole chain. Each finished upstream process is released by the pump that
// drained it.
func (p *Pipeline) Start(ctx context.Context, in Input) (*Run, error) {
	current := in
	var runs []*Run

	for i, c := range p.stages {
		stage := c
		last := i == len(p.stages)-1
		if !last || i > 0 {
			stage = c.clone()
			if !last {
				stage.output = OutputChunks
			}
			if i > 0 {
				stage.input = InputChunks
			}
		}

		run, err := stage.Start(ctx, current)
		if err != nil {
			// A stage that failed to spawn takes the already-started part of
			// the chain down with it.
			for _, r := range runs {
				r.Kill()
			}
			return nil, err
		}
		runs = append(runs, run)

		if !last {
			current = Chunks(run.Chunks())
		}
	}

	return runs[len(runs)-1], nil
}

// Lines starts the pipeline and returns the final stage's line stream. The
// final stage must be defined with OutputLines. On a spawn failure the error
// is delivered through the returned stream.
func (p *Pipeline) Lines(ctx context.Context, in Input) stream.Stream[string] {
	run, err := p.Start(ctx, in)
	if err != nil {
		return stream.Fail[string](err)
	}
	return run.Lines()
}
