package supervisor

import (
	"os/exec"
	"time"
)

// Job is one supervised run of an external process. It exists only while
// the child is alive (plus the brief window until the capture loop clears
// the slot) and is owned exclusively by the Supervisor; callers hold it as
// a read-only handle.
type Job struct {
	id        string
	argv      []string
	raw       bool
	startedAt time.Time

	cmd  *exec.Cmd
	done chan struct{}

	// exitCode is written once by the capture loop before done is closed.
	exitCode int
}

// ID returns the job's unique identifier.
func (j *Job) ID() string {
	return j.id
}

// Argv returns a copy of the argument vector the job was started with.
func (j *Job) Argv() []string {
	argv := make([]string, len(j.argv))
	copy(argv, j.argv)
	return argv
}

// Raw reports whether the job was started from a caller-supplied literal
// command line rather than the structured argument builder.
func (j *Job) Raw() bool {
	return j.raw
}

// StartedAt returns the job's start timestamp.
func (j *Job) StartedAt() time.Time {
	return j.startedAt
}

// Done returns a channel closed after the process has been reaped and the
// supervisor slot cleared. Waiting on it is the deterministic way to observe
// job completion in tests and shutdown paths.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// ExitCode returns the process exit code. Valid only after Done is closed;
// before that it returns 0.
func (j *Job) ExitCode() int {
	select {
	case <-j.done:
		return j.exitCode
	default:
		return 0
	}
}
