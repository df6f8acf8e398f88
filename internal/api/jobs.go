package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dlnode/dlnode/internal/api/models"
	"github.com/dlnode/dlnode/internal/supervisor"
	"github.com/dlnode/dlnode/internal/ytdlp"
)

// registerJobRoutes registers download start/stop/status endpoints.
func (s *Server) registerJobRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "start-download",
		Method:      http.MethodPost,
		Path:        "/api/start",
		Summary:     "Start Download",
		Description: "Build a yt-dlp command from the structured request and start it as the single supervised job",
		Tags:        []string{"jobs"},
		Errors:      []int{400, 409, 500},
	}, func(_ context.Context, input *struct {
		Body ytdlp.Request
	}) (*models.JobStartedResponse, error) {
		req := input.Body
		if s.options.Defaults != nil {
			defaults := s.options.Defaults()
			if req.ArchivePath == "" {
				req.ArchivePath = defaults.ArchivePath
			}
			if req.OutputTemplate == "" && req.DestinationDir == "" {
				req.OutputTemplate = defaults.OutputTemplate
			}
		}

		args, err := ytdlp.BuildArgs(s.options.YtdlpBin, req)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		job, err := s.options.Supervisor.Start(args, false)
		if err != nil {
			return nil, mapStartError(err)
		}

		return &models.JobStartedResponse{
			Body: models.JobStartedData{Status: "started", JobID: job.ID()},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "run-raw-command",
		Method:      http.MethodPost,
		Path:        "/api/run_raw",
		Summary:     "Run Raw Command",
		Description: "Split an arbitrary command line shell-style and start it as the single supervised job",
		Tags:        []string{"jobs"},
		Errors:      []int{400, 409, 422, 500},
	}, func(_ context.Context, input *models.RawCommandRequest) (*models.JobStartedResponse, error) {
		args, err := supervisor.SplitCommand(input.Body.Cmd)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		job, err := s.options.Supervisor.Start(args, true)
		if err != nil {
			return nil, mapStartError(err)
		}

		return &models.JobStartedResponse{
			Body: models.JobStartedData{Status: "started", JobID: job.ID()},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-job",
		Method:      http.MethodPost,
		Path:        "/api/stop",
		Summary:     "Stop Job",
		Description: "Signal the running job's process group with SIGINT. Returns idle when nothing is running.",
		Tags:        []string{"jobs"},
	}, func(_ context.Context, _ *struct{}) (*models.StopResponse, error) {
		res := s.options.Supervisor.Stop()
		return &models.StopResponse{
			Body: models.StopData{Status: string(res)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-job-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Job Status",
		Description: "Report whether a job is running, with its argv and start time",
		Tags:        []string{"jobs"},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		st := s.options.Supervisor.Status()
		return &models.StatusResponse{
			Body: models.StatusData{
				Running:   st.Running,
				JobID:     st.JobID,
				Args:      st.Argv,
				StartedAt: st.StartedAt,
			},
		}, nil
	})
}

// mapStartError converts supervisor start failures to HTTP errors.
func mapStartError(err error) error {
	switch {
	case errors.Is(err, supervisor.ErrAlreadyRunning):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, supervisor.ErrMissingArgument):
		return huma.Error400BadRequest(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
