package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/pkg/log"
	"github.com/lingualab/curator/pkg/metrics"
)

// LeaseHandle proves ownership of a work unit until Release.
type LeaseHandle struct {
	WorkID    string
	StartedAt time.Time
	released  bool
}

// LeaseService is the sole concurrency-control primitive of the pipeline.
// Acquisition is non-blocking: callers poll or back off on ErrAlreadyLeased.
type LeaseService struct {
	store  store.Store
	logger *log.StructuredLogger
}

func NewLeaseService(store store.Store) *LeaseService {
	return &LeaseService{
		store:  store,
		logger: log.NewDebugLogger("lease_service"),
	}
}

// WorkID builds the conventional work unit key, e.g. "document:{id}".
func WorkID(kind, id string) string {
	return fmt.Sprintf("%s:%s", kind, id)
}

func (s *LeaseService) Acquire(ctx context.Context, workID string) (*LeaseHandle, error) {
	tracer := s.logger.WithContext(ctx).Operation("acquire_lease").
		WithString("work_id", workID).
		Build()

	lease, err := s.store.Lease().Acquire(ctx, workID)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			metrics.IncreaseLeaseContentionTotalMetric()
			return nil, NewErrAlreadyLeased(workID)
		}
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().Log()
	return &LeaseHandle{WorkID: lease.WorkID, StartedAt: lease.StartedAt}, nil
}

// Release is idempotent: releasing an unheld or already-released lease is a
// no-op, not an error.
func (s *LeaseService) Release(ctx context.Context, handle *LeaseHandle) error {
	if handle == nil || handle.released {
		return nil
	}

	tracer := s.logger.WithContext(ctx).Operation("release_lease").
		WithString("work_id", handle.WorkID).
		Build()

	if err := s.store.Lease().Release(ctx, handle.WorkID); err != nil {
		tracer.Error(err).Log()
		return err
	}
	handle.released = true

	tracer.Success().Log()
	return nil
}

// ReclaimStale deletes leases older than maxAge. Reclaiming does not roll
// back partial work: the next holder must re-validate state before
// continuing.
func (s *LeaseService) ReclaimStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	tracer := s.logger.WithContext(ctx).Operation("reclaim_stale_leases").
		WithParam("max_age", maxAge.String()).
		Build()

	reclaimed, err := s.store.Lease().ReclaimStale(ctx, maxAge)
	if err != nil {
		tracer.Error(err).Log()
		return 0, err
	}
	if reclaimed > 0 {
		metrics.AddLeasesReclaimedTotalMetric(reclaimed)
	}

	tracer.Success().WithParam("reclaimed", reclaimed).Log()
	return reclaimed, nil
}
