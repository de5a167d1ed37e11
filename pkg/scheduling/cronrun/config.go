package cronrun

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	gserrors "github.com/vnykmshr/goshell/pkg/common/errors"
	"github.com/vnykmshr/goshell/pkg/common/validation"
)

// Job declares one command to run on a cron schedule.
type Job struct {
	// Name identifies the job in logs and metrics.
	Name string `yaml:"name"`

	// Schedule is a cron expression with a seconds field, or a descriptor
	// such as "@hourly".
	Schedule string `yaml:"schedule"`

	// Command is the program to run. No shell interpretation is performed.
	Command string `yaml:"command"`

	// Args are passed to the command verbatim.
	Args []string `yaml:"args,omitempty"`

	// Dir is the working directory. Empty inherits the runner's.
	Dir string `yaml:"dir,omitempty"`

	// Input, when set, is written to the command's standard input with a
	// trailing newline.
	Input string `yaml:"input,omitempty"`

	// Timeout bounds one run. Zero means no limit.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Validate checks the fields every job must carry.
func (j Job) Validate() error {
	if err := validation.NotEmpty("cronrun", "name", j.Name); err != nil {
		return err
	}
	if err := validation.NotEmpty("cronrun", "schedule", j.Schedule); err != nil {
		return err
	}
	if err := validation.NotEmpty("cronrun", "command", j.Command); err != nil {
		return err
	}
	if j.Timeout < 0 {
		return gserrors.NewValidationError("cronrun", "timeout", j.Timeout.String(),
			"cannot be negative")
	}
	return nil
}

// JobFile is the on-disk job declaration format.
type JobFile struct {
	Jobs []Job `yaml:"jobs"`
}

// LoadJobs reads and validates a YAML job file.
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gserrors.Chain("read job file", err)
	}
	return ParseJobs(data)
}

// ParseJobs parses and validates YAML job declarations.
func ParseJobs(data []byte) ([]Job, error) {
	var file JobFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, gserrors.Chain("parse job file", err)
	}
	if len(file.Jobs) == 0 {
		return nil, gserrors.NewValidationError("cronrun", "jobs", nil, "no jobs declared").
			WithHint("declare at least one entry under the jobs key")
	}
	seen := make(map[string]bool, len(file.Jobs))
	for i, job := range file.Jobs {
		if err := job.Validate(); err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
		if seen[job.Name] {
			return nil, gserrors.NewValidationError("cronrun", "name", job.Name,
				"duplicate job name")
		}
		seen[job.Name] = true
	}
	return file.Jobs, nil
}
