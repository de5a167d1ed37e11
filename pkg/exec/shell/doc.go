// Package shell runs external commands with pluggable input and output
// shapes and composes them into pipelines.
//
// A Cmd fixes its handler pair when defined: the input shape it accepts
// ({none, text, bytes, line stream, chunk stream}) and the output shape it
// produces ({discard, aggregate text, aggregate bytes, line stream, chunk
// stream}). The definition is reusable; each Start supplies that
// invocation's input value. Mismatched or missing input is rejected before
// anything is spawned.
//
//	out, err := shell.Command("sort").
//		WithInput(shell.InputLines).
//		WithOutput(shell.OutputText).
//		Start(ctx, shell.Lines(names))
//
// Streaming output is lazy: the child runs while its lines are consumed, and
// a slow consumer throttles it through pipe backpressure. The child's exit
// status is delivered as the stream's final error, after all of its output,
// so a non-zero exit never silently discards what the child wrote first.
//
// PipeTo chains commands the way a shell pipe does, pumping bytes between
// neighbors in the background. When an upstream stage fails, the failure
// travels down the chain and reaches the final consumer as an UpstreamError.
package shell
