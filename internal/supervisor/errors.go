package supervisor

import "errors"

var (
	// ErrAlreadyRunning is returned by Start while another job holds the
	// slot. The caller may retry after the job finishes or is stopped.
	ErrAlreadyRunning = errors.New("another job is already running")

	// ErrMissingArgument is returned by Start for an empty argument vector,
	// before any spawn attempt.
	ErrMissingArgument = errors.New("missing command")

	// ErrSpawnFailed wraps executable-resolution and fork failures. The job
	// slot is left idle; no retry is attempted.
	ErrSpawnFailed = errors.New("failed to spawn process")
)
