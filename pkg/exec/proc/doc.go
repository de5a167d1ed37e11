// Package proc spawns external processes and owns their lifecycle.
//
// A Process is a handle on one child: its piped standard streams, each behind
// an idempotent close wrapper, and its exit status, retrieved once with Wait
// and translated into the error taxonomy (ExitError, SignalError). A Group
// tracks every live process spawned through it; closing the group kills and
// releases all remaining members, so no child is orphaned however the program
// unwinds. Processes that complete naturally drop out of their group on their
// own.
//
// Kill is the unit of cancellation. Errors from tearing down a child whose
// consumer stopped reading are swallowed rather than reported; the child
// shutting down on request is not a failure.
package proc
