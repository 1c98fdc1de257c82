package httpadapter

import (
	"context"
	"log/slog"

	"graphrelay/contexts/collaboration-ingest/subscription-lifecycle/application"
	httptransport "graphrelay/contexts/collaboration-ingest/subscription-lifecycle/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// RunCycleHandler executes one lifecycle cycle on demand. It shares the
// exact logic the scheduled worker runs.
func (h Handler) RunCycleHandler(ctx context.Context) (httptransport.RunCycleResponse, error) {
	summary, err := h.Service.RunCycle(ctx)
	if err != nil {
		return httptransport.RunCycleResponse{}, err
	}

	resp := httptransport.RunCycleResponse{Status: "success"}
	resp.Data.Renewed = summary.Renewed
	resp.Data.Created = summary.Created
	resp.Data.Failed = summary.Failed
	return resp, nil
}
