// Package disks shells out to the host's block device tooling so the web
// UI can inspect attached drives and mount removable media for downloads.
package disks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dlnode/dlnode/internal/logging"
)

// DefaultSearchDirs are the bases scanned for download destinations when
// no directories are configured.
var DefaultSearchDirs = []string{
	"/media/pi", "/media/usb", "/mnt", "/home/pi/Downloads", "/srv/downloads",
}

// lsblkColumns matches the device overview shown in the UI's disk panel.
const lsblkColumns = "NAME,PATH,SIZE,FSTYPE,MOUNTPOINT,RM,ROTA,MODEL,LABEL"

var logger = logging.GetLogger("disks")

// CommandError carries the exit code and combined output of a failed
// mount or umount so handlers can surface both to the client.
type CommandError struct {
	Code   int
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command failed with code %d: %v", e.Code, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Service exposes block device inspection and mounting helpers. The
// destination search directories can be swapped at runtime, which the
// config watcher uses for hot reload.
type Service struct {
	mu         sync.RWMutex
	searchDirs []string
}

// NewService creates a Service scanning the given bases for download
// destinations, falling back to DefaultSearchDirs when none are given.
func NewService(searchDirs []string) *Service {
	if len(searchDirs) == 0 {
		searchDirs = DefaultSearchDirs
	}
	return &Service{searchDirs: append([]string(nil), searchDirs...)}
}

// SetSearchDirs replaces the destination search bases.
func (s *Service) SetSearchDirs(dirs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchDirs = append([]string(nil), dirs...)
	logger.Info("destination search directories updated", "dirs", dirs)
}

// SearchDirs returns a copy of the current destination search bases.
func (s *Service) SearchDirs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.searchDirs...)
}

// Lsblk returns the lsblk device table as plain text.
func (s *Service) Lsblk(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "lsblk", "-o", lsblkColumns).Output()
	if err != nil {
		return "", fmt.Errorf("lsblk: %w", err)
	}
	return string(out), nil
}

// DiskFree returns `df -hT` output as plain text.
func (s *Service) DiskFree(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "df", "-hT").Output()
	if err != nil {
		return "", fmt.Errorf("df: %w", err)
	}
	return string(out), nil
}

// Mount creates the mountpoint if needed and mounts the device on it via
// sudo. The command's combined output is returned either way so callers
// can relay mount errors verbatim.
func (s *Service) Mount(ctx context.Context, device, mountpoint string) (string, error) {
	if device == "" || mountpoint == "" {
		return "", errors.New("device and mountpoint required")
	}
	if err := os.MkdirAll(mountpoint, 0o755); err != nil {
		return "", fmt.Errorf("create mountpoint: %w", err)
	}
	return runPrivileged(ctx, "mount", device, mountpoint)
}

// Umount unmounts the given device or mountpoint via sudo.
func (s *Service) Umount(ctx context.Context, target string) (string, error) {
	if target == "" {
		return "", errors.New("target required")
	}
	return runPrivileged(ctx, "umount", target)
}

func runPrivileged(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "sudo", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		code := 1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		logger.Warn("privileged command failed", "args", args, "code", code)
		return string(out), &CommandError{Code: code, Output: string(out), Err: err}
	}
	return string(out), nil
}

// Destinations lists candidate download directories: each existing search
// base plus its immediate subdirectories, deduplicated and sorted. The
// walk stays shallow so slow removable media cannot stall the API.
func (s *Service) Destinations() []string {
	seen := make(map[string]struct{})
	for _, base := range s.SearchDirs() {
		info, err := os.Stat(base)
		if err != nil || !info.IsDir() {
			continue
		}
		seen[base] = struct{}{}
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				seen[filepath.Join(base, e.Name())] = struct{}{}
			}
		}
	}
	found := make([]string, 0, len(seen))
	for p := range seen {
		found = append(found, p)
	}
	sort.Strings(found)
	return found
}
