package workers

import (
	"context"
	"log/slog"

	"graphrelay/contexts/collaboration-ingest/subscription-lifecycle/application"
)

// RenewalJob drives one subscription lifecycle cycle per tick. The worker
// runtime owns the schedule; RunOnce owns nothing but the cycle itself.
type RenewalJob struct {
	Service application.Service
	Logger  *slog.Logger
}

func (j RenewalJob) RunOnce(ctx context.Context) error {
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}

	summary, err := j.Service.RunCycle(ctx)
	if err != nil {
		logger.Error("subscription renewal cycle failed",
			"event", "renewal_cycle_failed",
			"module", "collaboration-ingest/subscription-lifecycle",
			"layer", "worker",
			"renewed", summary.Renewed,
			"created", summary.Created,
			"failed", summary.Failed,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("subscription renewal cycle completed",
		"event", "renewal_cycle_completed",
		"module", "collaboration-ingest/subscription-lifecycle",
		"layer", "worker",
		"renewed", summary.Renewed,
		"created", summary.Created,
		"failed", summary.Failed,
	)
	return nil
}
