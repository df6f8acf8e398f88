package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/dlnode/dlnode/cmd"
	"github.com/dlnode/dlnode/internal/api"
	"github.com/dlnode/dlnode/internal/config"
	"github.com/dlnode/dlnode/internal/disks"
	"github.com/dlnode/dlnode/internal/events"
	"github.com/dlnode/dlnode/internal/logbus"
	"github.com/dlnode/dlnode/internal/logging"
	"github.com/dlnode/dlnode/internal/metrics"
	"github.com/dlnode/dlnode/internal/supervisor"
	"github.com/dlnode/dlnode/internal/updater"
	"github.com/dlnode/dlnode/internal/ytdlp"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Address to listen on" short:"p" default:":8080" toml:"server.port" env:"SERVER_PORT"`

	// Download settings
	YtdlpBin     string   `help:"yt-dlp executable" default:"yt-dlp" toml:"downloads.ytdlp_bin" env:"YTDLP_BIN"`
	DownloadDirs []string `help:"Directories scanned for download destinations" toml:"downloads.search_dirs" env:"DOWNLOAD_DIRS"`

	// Update settings
	UpdateRepo       string `help:"GitHub repository for self-updates" default:"dlnode/dlnode" toml:"update.repository" env:"UPDATE_REPO"`
	UpdatePrerelease bool   `help:"Include prereleases when checking for updates" default:"false" toml:"update.prerelease" env:"UPDATE_PRERELEASE"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSupervisor string `help:"Supervisor logging level" default:"info" toml:"logging.supervisor" env:"LOGGING_SUPERVISOR"`
	LoggingDisks      string `help:"Disks logging level" default:"info" toml:"logging.disks" env:"LOGGING_DISKS"`
	LoggingAPI        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingUpdater    string `help:"Updater logging level" default:"info" toml:"logging.updater" env:"LOGGING_UPDATER"`
}

func main() {
	// Create Huma CLI. The variable is captured so the startup closure can
	// hand the root cobra command to LoadConfig for flag precedence.
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"supervisor": opts.LoggingSupervisor,
				"disks":      opts.LoggingDisks,
				"api":        opts.LoggingAPI,
				"updater":    opts.LoggingUpdater,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Feed service logs into the event bus for the SSE log stream
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		m := metrics.New()
		logBus := logbus.New(logbus.Config{})

		diskService := disks.NewService(opts.DownloadDirs)

		// Download defaults reload from the config file while running. The
		// holder is read per request so in-flight handlers always see the
		// latest values.
		var downloadsMu sync.RWMutex
		downloadsCfg, dlErr := config.LoadDownloads(opts.Config)
		if dlErr != nil {
			logger.Warn("Failed to load download defaults", "error", dlErr)
		}
		if len(downloadsCfg.SearchDirs) > 0 && len(opts.DownloadDirs) == 0 {
			diskService.SetSearchDirs(downloadsCfg.SearchDirs)
		}
		downloadDefaults := func() config.Downloads {
			downloadsMu.RLock()
			defer downloadsMu.RUnlock()
			return downloadsCfg
		}

		watcher := config.NewConfigWatcher(opts.Config, config.LoadDownloads, logging.GetLogger("config"))
		watcher.OnReload(func(d config.Downloads) {
			downloadsMu.Lock()
			downloadsCfg = d
			downloadsMu.Unlock()
			if len(d.SearchDirs) > 0 {
				diskService.SetSearchDirs(d.SearchDirs)
			}
			logger.Info("Reloaded download defaults", "config", opts.Config)
		})

		// The supervisor publishes lifecycle events itself; the output hook
		// only adds progress parsing on top of the raw line stream.
		sup := supervisor.New(&supervisor.Options{
			Bus:     logBus,
			Events:  eventBus,
			Metrics: m,
			Logger:  logging.GetLogger("supervisor"),
			OutputHook: func(job *supervisor.Job, line string) {
				if percent, ok := ytdlp.ParseProgress(line); ok {
					eventBus.Publish(events.JobProgressEvent{
						JobID:     job.ID(),
						Percent:   percent,
						Timestamp: time.Now().UTC().Format(time.RFC3339),
					})
				}
			},
		})

		updateService, updErr := updater.NewService(&updater.Options{
			Repository: opts.UpdateRepo,
			Prerelease: opts.UpdatePrerelease,
		})
		if updErr != nil {
			logger.Warn("Self-update service unavailable", "error", updErr)
		}

		server := api.NewServer(&api.Options{
			Supervisor:        sup,
			LogBus:            logBus,
			EventBus:          eventBus,
			Disks:             diskService,
			UpdateService:     updateService,
			Metrics:           m,
			YtdlpBin:          opts.YtdlpBin,
			Defaults:          downloadDefaults,
			PrometheusHandler: m.Handler(),
		})

		hooks.OnStart(func() {
			// Best effort: a missing config file just means no hot reload
			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Config watcher disabled", "error", watchErr, "config", opts.Config)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			// Interrupt a running download so it can flush its archive and
			// partial files before the process exits
			if job := sup.Current(); job != nil {
				sup.Stop()
				select {
				case <-job.Done():
				case <-time.After(10 * time.Second):
					logger.Warn("Job did not exit before shutdown deadline")
				}
			}

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}
		})
	})

	// Add one-shot download command
	fetchCmd := cmd.CreateFetchCmd()
	cli.Root().AddCommand(fetchCmd)

	// Run the CLI
	cli.Run()
}
