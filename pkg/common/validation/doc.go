// Package validation holds the configuration checks shared by goshell
// packages. Every helper reports failures as a ValidationError from
// pkg/common/errors, raised before any process is spawned.
package validation
