// Package supervisor runs at most one external download process at a time,
// wiring its combined stdout/stderr into the log broadcaster line by line
// and exposing status and cooperative group-signal termination.
package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dlnode/dlnode/internal/events"
	"github.com/dlnode/dlnode/internal/logbus"
	"github.com/dlnode/dlnode/internal/metrics"
)

// maxLineSize caps the capture scanner's token size. Lines are practically
// bounded by OS pipe buffering; 1MB leaves plenty of headroom for yt-dlp's
// occasional JSON dumps.
const maxLineSize = 1024 * 1024

// OutputHook receives every captured output line after it has been
// broadcast. Used to feed progress parsing without coupling the supervisor
// to any particular downstream tool.
type OutputHook func(job *Job, line string)

// Options configures a Supervisor. Bus is required; everything else is
// optional.
type Options struct {
	Bus        *logbus.Broadcaster
	Events     *events.Bus
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	OutputHook OutputHook
}

// StopResult reports what Stop did.
type StopResult string

const (
	// StopIdle means there was no job to stop.
	StopIdle StopResult = "idle"
	// StopStopping means the interrupt signal was sent; the job keeps
	// running until the process exits on its own terms.
	StopStopping StopResult = "stopping"
)

// Status is a point-in-time snapshot of the job slot.
type Status struct {
	Running   bool
	JobID     string
	Argv      []string
	StartedAt *time.Time
}

// Supervisor owns the single current-job slot. One mutex guards the slot
// for Start, Stop, Status and the capture loop's terminal transition; line
// broadcasting never happens while the capture loop blocks on the pipe.
type Supervisor struct {
	bus     *logbus.Broadcaster
	events  *events.Bus
	metrics *metrics.Metrics
	logger  *slog.Logger
	hook    OutputHook

	mu  sync.Mutex
	job *Job
}

// New creates a Supervisor with an idle job slot.
func New(opts *Options) *Supervisor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Supervisor{
		bus:     opts.Bus,
		events:  opts.Events,
		metrics: opts.Metrics,
		logger:  logger,
		hook:    opts.OutputHook,
	}
}

// Start validates argv, claims the job slot and spawns the process in its
// own process group with stdout and stderr merged into one pipe. Exactly
// one synthetic line announcing the invocation is broadcast on success. The
// returned Job is a read-only handle; its Done channel closes once the
// capture loop has reaped the process and cleared the slot.
//
// Concurrent Start calls race safely: exactly one wins, the rest get
// ErrAlreadyRunning with no side effects on the winner.
func (s *Supervisor) Start(argv []string, raw bool) (*Job, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrMissingArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job != nil {
		return nil, ErrAlreadyRunning
	}

	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	// Own process group so Stop can signal child-of-child processes too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}
	// The child holds its own copy of the write end; ours must go so the
	// read side sees EOF when the process exits.
	pw.Close()

	job := &Job{
		id:        uuid.NewString(),
		argv:      append([]string(nil), argv...),
		raw:       raw,
		startedAt: time.Now(),
		cmd:       cmd,
		done:      make(chan struct{}),
	}
	s.job = job

	s.logger.Info("Job started",
		"job_id", job.id, "pid", cmd.Process.Pid, "raw", raw)
	s.broadcast(fmt.Sprintf("# Starting: %s", JoinCommand(argv)))

	s.metrics.JobStarted()
	if s.events != nil {
		s.events.Publish(events.JobStartedEvent{
			JobID:     job.id,
			Argv:      job.Argv(),
			Raw:       raw,
			Timestamp: job.startedAt.Format(time.RFC3339),
		})
	}

	go s.capture(job, pr)

	return job, nil
}

// Stop sends SIGINT to the current job's entire process group and returns
// without waiting for exit. A missing process group means the job is
// already on its way out and is treated as success. There is no kill
// escalation: a child that ignores the signal stays running.
func (s *Supervisor) Stop() StopResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		return StopIdle
	}

	pid := s.job.cmd.Process.Pid
	s.logger.Info("Stopping job", "job_id", s.job.id, "pid", pid)
	s.metrics.StopRequested()

	if pgid, err := syscall.Getpgid(pid); err == nil {
		if err := syscall.Kill(-pgid, syscall.SIGINT); err != nil && !errors.Is(err, syscall.ESRCH) {
			s.logger.Warn("Failed to signal process group", "pgid", pgid, "error", err)
		}
	}

	return StopStopping
}

// Current returns the running job handle, or nil when the slot is idle.
// The handle stays valid after the job finishes; use Done to wait on it.
func (s *Supervisor) Current() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job
}

// Status returns a snapshot of the job slot. It never blocks on process IO.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		return Status{}
	}

	started := s.job.startedAt
	return Status{
		Running:   true,
		JobID:     s.job.id,
		Argv:      s.job.Argv(),
		StartedAt: &started,
	}
}

// capture drains the job's merged output pipe line by line, forwarding each
// line as soon as it arrives, then reaps the process, reports its exit code
// as a final synthetic line and clears the slot. It is the only path that
// transitions the slot back to idle, and it runs to the cleanup step on
// every exit path including abnormal pipe closure.
func (s *Supervisor) capture(job *Job, pr io.ReadCloser) {
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		s.broadcast(line)
		if s.hook != nil {
			s.hook(job, line)
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("Error reading job output", "job_id", job.id, "error", err)
	}
	pr.Close()

	code := exitCodeFromError(job.cmd.Wait())

	s.broadcast(fmt.Sprintf("# Finished with exit code %d", code))
	s.logger.Info("Job finished", "job_id", job.id, "exit_code", code)

	s.mu.Lock()
	s.job = nil
	s.mu.Unlock()

	s.metrics.JobFinished()
	if s.events != nil {
		s.events.Publish(events.JobFinishedEvent{
			JobID:     job.id,
			ExitCode:  code,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}

	job.exitCode = code
	close(job.done)
}

func (s *Supervisor) broadcast(line string) {
	s.bus.Append(line)
	s.metrics.LineBroadcast()
}

// exitCodeFromError extracts the exit code from cmd.Wait's error: 0 for
// nil, the process exit code for ExitError, 1 for anything else.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
