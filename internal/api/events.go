package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/dlnode/dlnode/internal/events"
)

// registerEventRoutes registers the job lifecycle SSE endpoint.
func (s *Server) registerEventRoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time job lifecycle events: start, progress, and completion",
		Tags:        []string{"events"},
	}, map[string]any{
		"job-started":  events.JobStartedEvent{},
		"job-finished": events.JobFinishedEvent{},
		"job-progress": events.JobProgressEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.JobStartedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.JobFinishedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.JobProgressEvent](s.options.EventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

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
