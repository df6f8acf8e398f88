// Package api exposes the download node over HTTP using Huma v2: job
// control, log streaming, disk utilities, and self-update endpoints.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/dlnode/dlnode/internal/api/models"
	"github.com/dlnode/dlnode/internal/config"
	"github.com/dlnode/dlnode/internal/disks"
	"github.com/dlnode/dlnode/internal/events"
	"github.com/dlnode/dlnode/internal/logbus"
	"github.com/dlnode/dlnode/internal/logging"
	"github.com/dlnode/dlnode/internal/metrics"
	"github.com/dlnode/dlnode/internal/supervisor"
	"github.com/dlnode/dlnode/internal/updater"
	"github.com/dlnode/dlnode/internal/version"
	"github.com/dlnode/dlnode/ui"
)

// Options carries the wired services the API serves.
type Options struct {
	Supervisor    *supervisor.Supervisor
	LogBus        *logbus.Broadcaster
	EventBus      *events.Bus
	Disks         *disks.Service
	UpdateService updater.Service
	Metrics       *metrics.Metrics

	// YtdlpBin is the yt-dlp executable used for structured downloads.
	YtdlpBin string

	// Defaults returns the current download defaults. Called per request
	// so config hot reloads take effect without a restart.
	Defaults func() config.Downloads

	// PrometheusHandler serves /metrics when set.
	PrometheusHandler http.Handler
}

// Server is the Huma v2 API server on Go 1.22+ native routing.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	logger     *slog.Logger
}

// NewServer creates the API server and registers all routes.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	cfg := huma.DefaultConfig("dlnode API", version.String())
	cfg.Info.Description = "Single-job yt-dlp supervisor with live log streaming"
	// Empty servers list makes OpenAPI use relative paths, working with any host
	cfg.Servers = []*huma.Server{}

	api := humago.New(mux, cfg)

	server := &Server{
		api:     api,
		mux:     mux,
		options: opts,
		logger:  logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()

	// Serve the control panel at the root for non-API paths
	if frontendHandler, err := ui.Handler(); err == nil {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api") {
				http.NotFound(w, r)
				return
			}
			frontendHandler.ServeHTTP(w, r)
		})
	}

	return server
}

// GetMux returns the underlying HTTP ServeMux for additional setup.
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// GetAPI returns the Huma API instance.
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start starts the HTTP server on the specified address.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting dlnode API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down without waiting for open SSE connections.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	if s.httpServer != nil {
		return s.httpServer.Close()
	}

	return nil
}

// registerRoutes sets up all API endpoints.
func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				BuildID:   info.BuildID,
				GoVersion: info.GoVersion,
				Compiler:  info.Compiler,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerJobRoutes()
	s.registerLogRoutes()
	s.registerEventRoutes()
	s.registerDiskRoutes()
	s.registerUpdateRoutes()
}
