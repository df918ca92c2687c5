package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/store/model"
)

type Lease interface {
	Acquire(ctx context.Context, workID string) (*model.WorkLease, error)
	Release(ctx context.Context, workID string) error
	Get(ctx context.Context, workID string) (*model.WorkLease, error)
	ReclaimStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

type LeaseStore struct {
	db *gorm.DB
}

// Make sure we conform to Lease interface
var _ Lease = (*LeaseStore)(nil)

func NewLeaseStore(db *gorm.DB) Lease {
	return &LeaseStore{db: db}
}

// Acquire inserts the lease row keyed by workID. Exclusivity comes from the
// primary key: the losing insert returns ErrDuplicateKey.
func (s *LeaseStore) Acquire(ctx context.Context, workID string) (*model.WorkLease, error) {
	lease := model.WorkLease{
		WorkID:    workID,
		StartedAt: time.Now(),
	}
	result := s.getDB(ctx).Create(&lease)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("acquiring lease: %w", result.Error)
	}
	return &lease, nil
}

// Release is idempotent: deleting an unheld lease is a no-op.
func (s *LeaseStore) Release(ctx context.Context, workID string) error {
	result := s.getDB(ctx).Delete(&model.WorkLease{}, "work_id = ?", workID)
	if result.Error != nil {
		return fmt.Errorf("releasing lease: %w", result.Error)
	}
	return nil
}

func (s *LeaseStore) Get(ctx context.Context, workID string) (*model.WorkLease, error) {
	var lease model.WorkLease
	result := s.getDB(ctx).First(&lease, "work_id = ?", workID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &lease, nil
}

// ReclaimStale deletes leases older than maxAge, guarding against workers
// that crashed without releasing. It does not roll back partial work.
func (s *LeaseStore) ReclaimStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	result := s.getDB(ctx).Delete(&model.WorkLease{}, "started_at < ?", cutoff)
	if result.Error != nil {
		return 0, fmt.Errorf("reclaiming stale leases: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *LeaseStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
