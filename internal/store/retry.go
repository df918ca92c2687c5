package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/store/model"
)

type Retry interface {
	Create(ctx context.Context, entry model.RetryQueueEntry) (*model.RetryQueueEntry, error)
	Get(ctx context.Context, id uint) (*model.RetryQueueEntry, error)
	List(ctx context.Context, filter *RetryQueryFilter) (model.RetryQueueEntryList, error)
	MaxRetryCount(ctx context.Context, itemID uuid.UUID, itemType string) (int, error)
	UpdateStatus(ctx context.Context, id uint, from, to string, errorMessage *string) error
	CountPending(ctx context.Context) (int64, error)
}

type RetryStore struct {
	db *gorm.DB
}

// Make sure we conform to Retry interface
var _ Retry = (*RetryStore)(nil)

func NewRetryStore(db *gorm.DB) Retry {
	return &RetryStore{db: db}
}

func (s *RetryStore) Create(ctx context.Context, entry model.RetryQueueEntry) (*model.RetryQueueEntry, error) {
	result := s.getDB(ctx).Create(&entry)
	if result.Error != nil {
		return nil, fmt.Errorf("creating retry entry: %w", result.Error)
	}
	return &entry, nil
}

func (s *RetryStore) Get(ctx context.Context, id uint) (*model.RetryQueueEntry, error) {
	var entry model.RetryQueueEntry
	result := s.getDB(ctx).First(&entry, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &entry, nil
}

func (s *RetryStore) List(ctx context.Context, filter *RetryQueryFilter) (model.RetryQueueEntryList, error) {
	var entries model.RetryQueueEntryList
	tx := s.getDB(ctx).Model(&entries).Order("scheduled_at")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// MaxRetryCount returns the highest retry_count recorded for the item, zero
// when the item never entered the queue.
func (s *RetryStore) MaxRetryCount(ctx context.Context, itemID uuid.UUID, itemType string) (int, error) {
	var max struct{ N int }
	result := s.getDB(ctx).Model(&model.RetryQueueEntry{}).
		Select("COALESCE(MAX(retry_count), 0) AS n").
		Where("item_id = ? AND item_type = ?", itemID, itemType).
		Scan(&max)
	if result.Error != nil {
		return 0, fmt.Errorf("computing retry count: %w", result.Error)
	}
	return max.N, nil
}

// UpdateStatus guards on the previous status so two consumers cannot both
// claim the same entry.
func (s *RetryStore) UpdateStatus(ctx context.Context, id uint, from, to string, errorMessage *string) error {
	updates := map[string]any{"status": to}
	if to == model.RetryStatusCompleted || to == model.RetryStatusFailed {
		now := time.Now()
		updates["processed_at"] = &now
	}
	if errorMessage != nil {
		updates["error_message"] = errorMessage
	}

	result := s.getDB(ctx).Model(&model.RetryQueueEntry{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating retry entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleRecord
	}
	return nil
}

func (s *RetryStore) CountPending(ctx context.Context) (int64, error) {
	var count int64
	result := s.getDB(ctx).Model(&model.RetryQueueEntry{}).
		Where("status = ?", model.RetryStatusPending).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

func (s *RetryStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
