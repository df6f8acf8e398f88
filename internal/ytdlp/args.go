// Package ytdlp assembles yt-dlp command lines from structured download
// requests and parses progress out of the tool's output.
package ytdlp

import (
	"errors"
	"path/filepath"
	"strings"
)

// DefaultBinary is the yt-dlp executable resolved from PATH unless the
// service is configured otherwise.
const DefaultBinary = "yt-dlp"

// ErrMissingURL is returned when a download request has no URL.
var ErrMissingURL = errors.New("missing URL")

// Format selection modes.
const (
	FormatModePreset = "preset"
	FormatModeCustom = "custom"
)

// Download kinds for the preset format mode.
const (
	KindVideoAudio = "video_audio"
	KindVideo      = "video"
	KindAudio      = "audio"
)

// allowedToggles is the whitelist of boolean yt-dlp flags the API accepts.
// Anything else in a request's toggle list is silently ignored.
var allowedToggles = map[string]struct{}{
	"--no-abort-on-error":          {},
	"--skip-unavailable-fragments": {},
	"--continue":                   {},
	"--restrict-filenames":         {},
	"--windows-filenames":          {},
	"--embed-thumbnail":            {},
	"--embed-metadata":             {},
	"--embed-chapters":             {},
	"--write-description":          {},
	"--write-info-json":            {},
	"--no-clean-info-json":         {},
	"--write-subs":                 {},
	"--no-simulate":                {},
	"--no-ignore-no-formats-error": {},
	"--list-formats":               {},
	"--list-subs":                  {},
	"--progress":                   {},
	"--console-title":              {},
	"--no-keep-fragments":          {},
}

// Request describes a structured download submitted through the API.
type Request struct {
	URL              string   `json:"url" doc:"Media URL to download" example:"https://example.com/watch?v=abc"`
	OutputTemplate   string   `json:"output_template,omitempty" doc:"yt-dlp output template passed to -o"`
	ArchivePath      string   `json:"archive_path,omitempty" doc:"Download archive file passed to --download-archive"`
	FormatMode       string   `json:"format_mode,omitempty" enum:"preset,custom" default:"preset" doc:"Format selection mode"`
	CustomFormat     string   `json:"custom_format,omitempty" doc:"Raw -f selector, used when format_mode is custom"`
	DownloadKind     string   `json:"dl_kind,omitempty" enum:"video_audio,video,audio" default:"video_audio" doc:"Preset media selection"`
	MaxHeight        string   `json:"max_height,omitempty" doc:"Resolution cap for preset video formats" example:"1080"`
	LimitRate        string   `json:"limit_rate,omitempty" doc:"Bandwidth limit passed to --limit-rate" example:"4M"`
	SleepInterval    string   `json:"sleep_interval,omitempty" doc:"Seconds passed to --sleep-interval"`
	MaxSleepInterval string   `json:"max_sleep_interval,omitempty" doc:"Seconds passed to --max-sleep-interval"`
	Toggles          []string `json:"toggles,omitempty" doc:"Whitelisted boolean yt-dlp flags to enable"`
	DestinationDir   string   `json:"destination_dir,omitempty" doc:"Base directory used when no output template is given"`
}

// BuildArgs turns a request into a full yt-dlp argv. The binary comes
// first, --newline keeps progress on separate lines so the capture loop
// sees each update, and the URL is always last.
func BuildArgs(bin string, req Request) ([]string, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, ErrMissingURL
	}
	if bin == "" {
		bin = DefaultBinary
	}

	args := []string{bin, "--newline"}

	outTmpl := strings.TrimSpace(req.OutputTemplate)
	if outTmpl != "" {
		args = append(args, "-o", outTmpl)
	}
	if arch := strings.TrimSpace(req.ArchivePath); arch != "" {
		args = append(args, "--download-archive", arch)
	}

	if req.FormatMode == FormatModeCustom {
		if cf := strings.TrimSpace(req.CustomFormat); cf != "" {
			args = append(args, "-f", cf)
		}
	} else {
		args = append(args, "-f", presetFormat(req.DownloadKind, strings.TrimSpace(req.MaxHeight)))
	}

	if rate := strings.TrimSpace(req.LimitRate); rate != "" {
		args = append(args, "--limit-rate", rate)
	}
	if si := strings.TrimSpace(req.SleepInterval); si != "" {
		args = append(args, "--sleep-interval", si)
	}
	if sm := strings.TrimSpace(req.MaxSleepInterval); sm != "" {
		args = append(args, "--max-sleep-interval", sm)
	}

	for _, t := range req.Toggles {
		if _, ok := allowedToggles[t]; ok {
			args = append(args, t)
		}
	}

	if base := strings.TrimSpace(req.DestinationDir); base != "" && outTmpl == "" {
		args = append(args, "-o", filepath.Join(base, "%(uploader)s/%(title)s.%(ext)s"))
	}

	args = append(args, url)
	return args, nil
}

func presetFormat(kind, maxHeight string) string {
	switch kind {
	case KindAudio:
		return "bestaudio/best"
	case KindVideo:
		if maxHeight != "" {
			return "bestvideo*[height<=" + maxHeight + "]/bestvideo"
		}
		return "bestvideo"
	default:
		if maxHeight != "" {
			return "bestvideo*[height<=" + maxHeight + "]+bestaudio/best[height<=" + maxHeight + "]/best"
		}
		return "bestvideo+bestaudio/best"
	}
}
