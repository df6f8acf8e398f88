package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dlnode/dlnode/internal/config"
	"github.com/dlnode/dlnode/internal/disks"
	"github.com/dlnode/dlnode/internal/events"
	"github.com/dlnode/dlnode/internal/logbus"
	"github.com/dlnode/dlnode/internal/supervisor"
)

// newTestServer wires a real supervisor and log bus behind the API.
func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()

	bus := logbus.New(logbus.Config{})
	server := NewServer(&Options{
		Supervisor: supervisor.New(&supervisor.Options{Bus: bus, Events: events.New()}),
		LogBus:     bus,
		EventBus:   events.New(),
		Disks:      disks.NewService([]string{t.TempDir()}),
		YtdlpBin:   "yt-dlp",
		Defaults:   func() config.Downloads { return config.Downloads{} },
	})

	ts := httptest.NewServer(server.GetMux())
	t.Cleanup(ts.Close)
	return ts, server
}

// stubBinary puts a fake executable on PATH for the duration of a test.
func stubBinary(t *testing.T, name, script string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// waitForIdle polls /api/status until no job is running.
func waitForIdle(t *testing.T, baseURL string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/api/status")
		if err != nil {
			t.Fatal(err)
		}
		var status struct {
			Running bool `json:"running"`
		}
		decodeBody(t, resp, &status)
		if !status.Running {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
}

func TestHealthAndVersion(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	var health struct {
		Status string `json:"status"`
	}
	decodeBody(t, resp, &health)
	if health.Status != "ok" {
		t.Errorf("health status = %q, want ok", health.Status)
	}

	resp, err = http.Get(ts.URL + "/api/version")
	if err != nil {
		t.Fatal(err)
	}
	var ver struct {
		Version   string `json:"version"`
		GoVersion string `json:"go_version"`
	}
	decodeBody(t, resp, &ver)
	if ver.Version == "" || ver.GoVersion == "" {
		t.Errorf("version response incomplete: %+v", ver)
	}
}

func TestRunRawLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/run_raw", map[string]string{"cmd": "echo hello"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run_raw status = %d", resp.StatusCode)
	}
	var started struct {
		Status string `json:"status"`
		JobID  string `json:"job_id"`
	}
	decodeBody(t, resp, &started)
	if started.Status != "started" || started.JobID == "" {
		t.Errorf("run_raw response = %+v", started)
	}

	waitForIdle(t, ts.URL)

	resp, err := http.Get(ts.URL + "/api/logs/history")
	if err != nil {
		t.Fatal(err)
	}
	var history struct {
		Lines []string `json:"lines"`
		Count int      `json:"count"`
	}
	decodeBody(t, resp, &history)
	if history.Count != 3 {
		t.Fatalf("history = %v, want announce, output, exit lines", history.Lines)
	}
	if history.Lines[1] != "hello" {
		t.Errorf("output line = %q, want hello", history.Lines[1])
	}
	if history.Lines[2] != "# Finished with exit code 0" {
		t.Errorf("exit line = %q", history.Lines[2])
	}
}

func TestStartBuildsYtdlpCommand(t *testing.T) {
	stubBinary(t, "yt-dlp", `echo "$@"`)
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/start", map[string]any{
		"url":        "https://example.com/v",
		"dl_kind":    "audio",
		"limit_rate": "4M",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	waitForIdle(t, ts.URL)

	resp, err := http.Get(ts.URL + "/api/logs/history")
	if err != nil {
		t.Fatal(err)
	}
	var history struct {
		Lines []string `json:"lines"`
	}
	decodeBody(t, resp, &history)

	var echoed string
	for _, line := range history.Lines {
		if strings.Contains(line, "--newline") && !strings.HasPrefix(line, "#") {
			echoed = line
		}
	}
	if !strings.Contains(echoed, "-f bestaudio/best") ||
		!strings.Contains(echoed, "--limit-rate 4M") ||
		!strings.HasSuffix(echoed, "https://example.com/v") {
		t.Errorf("yt-dlp argv = %q", echoed)
	}
}

func TestStartMissingURLIsBadRequest(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/start", map[string]any{"url": "  "})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("start without URL status = %d, want 400", resp.StatusCode)
	}
}

func TestSecondStartConflicts(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/run_raw", map[string]string{"cmd": "sleep 30"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first run_raw status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/run_raw", map[string]string{"cmd": "echo intruder"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second run_raw status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/stop", nil)
	var stop struct {
		Status string `json:"status"`
	}
	decodeBody(t, resp, &stop)
	if stop.Status != "stopping" {
		t.Errorf("stop status = %q, want stopping", stop.Status)
	}
	waitForIdle(t, ts.URL)
}

func TestStopWhileIdle(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/stop", nil)
	var stop struct {
		Status string `json:"status"`
	}
	decodeBody(t, resp, &stop)
	if stop.Status != "idle" {
		t.Errorf("stop status = %q, want idle", stop.Status)
	}
}

func TestStatusReflectsRunningJob(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/run_raw", map[string]string{"cmd": "sleep 30"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run_raw status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	var status struct {
		Running   bool     `json:"running"`
		Args      []string `json:"args"`
		StartedAt string   `json:"started_at"`
	}
	decodeBody(t, resp, &status)
	if !status.Running || len(status.Args) != 2 || status.Args[0] != "sleep" {
		t.Errorf("status = %+v", status)
	}
	if status.StartedAt == "" {
		t.Error("status missing started_at")
	}

	postJSON(t, ts.URL+"/api/stop", nil).Body.Close()
	waitForIdle(t, ts.URL)
}

func TestLogStreamDeliversJobOutput(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/logs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Fatalf("content type = %q, want text/event-stream", ct)
	}

	post := postJSON(t, ts.URL+"/api/run_raw", map[string]string{"cmd": "echo streamed"})
	if post.StatusCode != http.StatusOK {
		t.Fatalf("run_raw status = %d", post.StatusCode)
	}
	post.Body.Close()

	var data []string
	scanner := bufio.NewScanner(resp.Body)
	deadline := time.AfterFunc(5*time.Second, func() { resp.Body.Close() })
	defer deadline.Stop()
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		if strings.Contains(line, "# Finished with exit code 0") {
			break
		}
	}

	joined := strings.Join(data, "\n")
	if !strings.Contains(joined, "# Starting: echo streamed") {
		t.Errorf("stream missing announce line: %v", data)
	}
	if !strings.Contains(joined, `"streamed"`) && !strings.Contains(joined, `streamed`) {
		t.Errorf("stream missing job output: %v", data)
	}
}

func TestListDestinations(t *testing.T) {
	base := t.TempDir()
	if err := os.Mkdir(filepath.Join(base, "usb0"), 0o755); err != nil {
		t.Fatal(err)
	}

	bus := logbus.New(logbus.Config{})
	server := NewServer(&Options{
		Supervisor: supervisor.New(&supervisor.Options{Bus: bus}),
		LogBus:     bus,
		EventBus:   events.New(),
		Disks:      disks.NewService([]string{base}),
	})
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/list_destinations")
	if err != nil {
		t.Fatal(err)
	}
	var dest struct {
		Paths []string `json:"paths"`
	}
	decodeBody(t, resp, &dest)
	if len(dest.Paths) != 2 || dest.Paths[0] != base {
		t.Errorf("paths = %v, want base and usb0", dest.Paths)
	}
}

func TestLsblkEndpoint(t *testing.T) {
	stubBinary(t, "lsblk", `echo "NAME PATH SIZE"`)
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/lsblk")
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		OK     bool   `json:"ok"`
		Output string `json:"output"`
	}
	decodeBody(t, resp, &out)
	if !out.OK || !strings.Contains(out.Output, "NAME PATH SIZE") {
		t.Errorf("lsblk response = %+v", out)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/status", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS allow-origin header")
	}
}
