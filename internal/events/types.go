package events

// Event type constants for kelindar/event.
const (
	TypeJobStarted uint32 = iota + 1
	TypeJobFinished
	TypeJobProgress
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// JobStartedEvent is published when the supervisor spawns a job.
type JobStartedEvent struct {
	JobID     string   `json:"job_id" example:"7cfd0a3e-1b77-4a35-9f1e-2f6f3a1a9b10" doc:"Job identifier"`
	Argv      []string `json:"argv" doc:"Argument vector the job was started with"`
	Raw       bool     `json:"raw" example:"false" doc:"Whether the job came from a raw command line"`
	Timestamp string   `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Start timestamp"`
}

// Type returns the event type identifier for JobStartedEvent.
func (e JobStartedEvent) Type() uint32 { return TypeJobStarted }

// JobFinishedEvent is published after a job's process has been reaped.
type JobFinishedEvent struct {
	JobID     string `json:"job_id" doc:"Job identifier"`
	ExitCode  int    `json:"exit_code" example:"0" doc:"Process exit code"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:31:12Z" doc:"Completion timestamp"`
}

// Type returns the event type identifier for JobFinishedEvent.
func (e JobFinishedEvent) Type() uint32 { return TypeJobFinished }

// JobProgressEvent carries a download-progress percentage parsed from the
// job's output.
type JobProgressEvent struct {
	JobID     string  `json:"job_id" doc:"Job identifier"`
	Percent   float64 `json:"percent" example:"42.5" doc:"Download progress percentage"`
	Timestamp string  `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for JobProgressEvent.
func (e JobProgressEvent) Type() uint32 { return TypeJobProgress }

// LogEntryEvent represents one structured service log entry for SSE
// streaming of dlnode's own logs (not job output).
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
