// Package models defines the request and response bodies for the HTTP API.
package models

import "time"

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go toolchain version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"OS and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// Job models
type JobStartedData struct {
	Status string `json:"status" example:"started" doc:"Start outcome"`
	JobID  string `json:"job_id" doc:"Identifier of the started job"`
}

type JobStartedResponse struct {
	Body JobStartedData
}

type RawCommandRequest struct {
	Body struct {
		Cmd string `json:"cmd" minLength:"1" example:"yt-dlp --newline https://example.com/v" doc:"Shell-style command line, split with quote awareness"`
	}
}

type StopData struct {
	Status string `json:"status" enum:"idle,stopping" doc:"idle when nothing was running, stopping when SIGINT was sent"`
}

type StopResponse struct {
	Body StopData
}

type StatusData struct {
	Running   bool       `json:"running" doc:"Whether a job currently occupies the slot"`
	JobID     string     `json:"job_id,omitempty" doc:"Identifier of the running job"`
	Args      []string   `json:"args,omitempty" doc:"Argument vector of the running job"`
	StartedAt *time.Time `json:"started_at,omitempty" doc:"When the running job was spawned"`
}

type StatusResponse struct {
	Body StatusData
}

// Log models
type LogHistoryData struct {
	Lines []string `json:"lines" doc:"Buffered output lines, oldest first"`
	Count int      `json:"count" doc:"Number of lines returned"`
}

type LogHistoryResponse struct {
	Body LogHistoryData
}

// LogLine is one job output line delivered over SSE.
type LogLine struct {
	Line string `json:"line" doc:"Raw output line"`
}

// Disk models
type DiskTextData struct {
	OK     bool   `json:"ok" doc:"Whether the command succeeded"`
	Output string `json:"output" doc:"Raw command output"`
}

type DiskTextResponse struct {
	Body DiskTextData
}

type DestinationsData struct {
	Paths []string `json:"paths" doc:"Candidate download directories, sorted"`
}

type DestinationsResponse struct {
	Body DestinationsData
}

type MountRequest struct {
	Body struct {
		Device     string `json:"device" minLength:"1" example:"/dev/sda1" doc:"Block device to mount"`
		Mountpoint string `json:"mountpoint" minLength:"1" example:"/media/usb0" doc:"Directory to mount onto, created if missing"`
	}
}

type UmountRequest struct {
	Body struct {
		Target string `json:"target" minLength:"1" example:"/media/usb0" doc:"Device or mountpoint to unmount"`
	}
}

type MountData struct {
	OK     bool   `json:"ok" doc:"Whether the command succeeded"`
	Output string `json:"output,omitempty" doc:"Combined command output"`
	Code   int    `json:"code,omitempty" doc:"Exit code when the command failed"`
}

type MountResponse struct {
	Body MountData
}

// Update models
type UpdateCheckData struct {
	CurrentVersion  string    `json:"current_version" example:"1.2.0" doc:"Currently running version"`
	LatestVersion   string    `json:"latest_version" example:"1.3.0" doc:"Latest available version"`
	ReleaseNotes    string    `json:"release_notes,omitempty" doc:"Release notes for the latest version"`
	ReleaseURL      string    `json:"release_url,omitempty" doc:"Link to the release page"`
	PublishedAt     time.Time `json:"published_at,omitempty" doc:"When the release was published"`
	AssetSize       int       `json:"asset_size,omitempty" doc:"Download size in bytes"`
	UpdateAvailable bool      `json:"update_available" doc:"Whether a newer version exists"`
}

type UpdateCheckResponse struct {
	Body UpdateCheckData
}

type UpdateStatusData struct {
	State          string     `json:"state" example:"idle" doc:"Updater state machine state"`
	CurrentVersion string     `json:"current_version" doc:"Currently running version"`
	TargetVersion  string     `json:"target_version,omitempty" doc:"Version being installed"`
	Error          string     `json:"error,omitempty" doc:"Last updater error"`
	LastChecked    *time.Time `json:"last_checked,omitempty" doc:"When updates were last checked"`
}

type UpdateStatusResponse struct {
	Body UpdateStatusData
}

type UpdateApplyResponse struct {
	Body struct {
		Message string `json:"message" example:"Update applied, restarting..." doc:"Status message"`
	}
}
