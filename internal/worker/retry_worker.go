package worker

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/lingualab/curator/internal/service"
)

// RetryWorker drains the retry queue on a jittered interval. Multiple
// instances may run against the same database; per-item leases keep them
// from stepping on each other.
type RetryWorker struct {
	retries  *service.RetryService
	interval time.Duration
}

func NewRetryWorker(retries *service.RetryService, interval time.Duration) *RetryWorker {
	return &RetryWorker{
		retries:  retries,
		interval: interval,
	}
}

func (w *RetryWorker) Run(ctx context.Context) error {
	ticker := jitterbug.New(w.interval, &jitterbug.Norm{Stdev: 30 * time.Millisecond, Mean: 0})
	defer ticker.Stop()

	zap.S().Named("retry_worker").Infof("starting retry consumer, polling every %s", w.interval)

	for {
		select {
		case <-ticker.C:
			processed, err := w.retries.ProcessDue(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				zap.S().Named("retry_worker").Errorf("failed to process retry queue: %v", err)
				continue
			}
			if processed > 0 {
				zap.S().Named("retry_worker").Infof("processed %d retry entries", processed)
			}
		case <-ctx.Done():
			zap.S().Named("retry_worker").Info("stopping retry consumer")
			return nil
		}
	}
}
