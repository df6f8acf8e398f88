package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/dlnode/dlnode/internal/api/models"
	"github.com/dlnode/dlnode/internal/events"
	"github.com/dlnode/dlnode/internal/logging"
)

// registerLogRoutes registers job output streaming plus service log
// endpoints.
func (s *Server) registerLogRoutes() {
	// Job output stream. Late subscribers get the recent history first,
	// then live lines from the broadcaster.
	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Job Log Stream",
		Description: "Real-time job output via Server-Sent Events. Sends recent history first, then streams new lines. Slow consumers are disconnected rather than allowed to stall the job.",
		Tags:        []string{"logs"},
	}, map[string]any{
		"message": models.LogLine{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		sub := s.options.LogBus.Subscribe()
		defer sub.Close()
		if s.options.Metrics != nil {
			s.options.Metrics.SubscriberConnected()
			defer s.options.Metrics.SubscriberDisconnected()
		}

		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-sub.Lines():
				if !ok {
					// Dropped by the broadcaster for falling behind
					return
				}
				if err := send.Data(models.LogLine{Line: line}); err != nil {
					return
				}
			}
		}
	})

	// Snapshot of the buffered job output for clients that cannot hold an
	// SSE connection open.
	huma.Register(s.api, huma.Operation{
		OperationID: "logs-history",
		Method:      http.MethodGet,
		Path:        "/api/logs/history",
		Summary:     "Job Log History",
		Description: "Buffered job output lines, oldest first",
		Tags:        []string{"logs"},
	}, func(_ context.Context, _ *struct{}) (*models.LogHistoryResponse, error) {
		lines := s.options.LogBus.History()
		return &models.LogHistoryResponse{
			Body: models.LogHistoryData{Lines: lines, Count: len(lines)},
		}, nil
	})

	// Service log stream (structured slog entries, not job output).
	sse.Register(s.api, huma.Operation{
		OperationID: "system-logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/system/logs",
		Summary:     "Service Log Stream",
		Description: "Real-time service log streaming via Server-Sent Events. Sends historical logs first, then streams new entries.",
		Tags:        []string{"logs"},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// First, replay the ring buffer
		if buffer := logging.GetBuffer(); buffer != nil {
			for _, entry := range buffer.ReadAll() {
				ev := events.LogEntryEvent{
					Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
					Level:      entry.Level,
					Module:     entry.Module,
					Message:    entry.Message,
					Attributes: entry.Attributes,
				}
				if err := send.Data(ev); err != nil {
					return
				}
			}
		}

		eventCh := make(chan any, 100) // Larger buffer for logs

		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.options.EventBus, eventCh)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-eventCh:
				if err := send.Data(ev); err != nil {
					return
				}
			}
		}
	})
}
