package worker

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/lingualab/curator/internal/service"
)

// LeaseReclaimer sweeps leases older than maxAge so that work held by a
// crashed worker becomes acquirable again.
type LeaseReclaimer struct {
	leases   *service.LeaseService
	interval time.Duration
	maxAge   time.Duration
}

func NewLeaseReclaimer(leases *service.LeaseService, interval, maxAge time.Duration) *LeaseReclaimer {
	return &LeaseReclaimer{
		leases:   leases,
		interval: interval,
		maxAge:   maxAge,
	}
}

func (r *LeaseReclaimer) Run(ctx context.Context) error {
	ticker := jitterbug.New(r.interval, &jitterbug.Norm{Stdev: 30 * time.Millisecond, Mean: 0})
	defer ticker.Stop()

	zap.S().Named("lease_reclaimer").Infof("starting lease reclaimer, sweeping every %s, max age %s", r.interval, r.maxAge)

	for {
		select {
		case <-ticker.C:
			reclaimed, err := r.leases.ReclaimStale(ctx, r.maxAge)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				zap.S().Named("lease_reclaimer").Errorf("failed to reclaim stale leases: %v", err)
				continue
			}
			if reclaimed > 0 {
				zap.S().Named("lease_reclaimer").Warnf("reclaimed %d stale leases", reclaimed)
			}
		case <-ctx.Done():
			zap.S().Named("lease_reclaimer").Info("stopping lease reclaimer")
			return nil
		}
	}
}
