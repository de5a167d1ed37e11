/*
Package exec owns the lifecycle of spawned external processes and their
standard streams.

  - proc: process handles and groups; a group guarantees every process
    spawned through it is terminated and released when the group closes
  - shell: reusable command definitions with pluggable input/output shapes,
    streaming output consumption, and shell-style pipelines between
    processes

The layering is deliberate: proc knows nothing about data shapes, shell
knows nothing about OS details beyond what proc exposes.
*/
package exec
