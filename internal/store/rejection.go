package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/store/model"
)

type Rejection interface {
	Create(ctx context.Context, rejection model.RejectedItem) (*model.RejectedItem, error)
	Get(ctx context.Context, itemID uuid.UUID, itemType string) (*model.RejectedItem, error)
	List(ctx context.Context) ([]model.RejectedItem, error)
}

type RejectionStore struct {
	db *gorm.DB
}

// Make sure we conform to Rejection interface
var _ Rejection = (*RejectionStore)(nil)

func NewRejectionStore(db *gorm.DB) Rejection {
	return &RejectionStore{db: db}
}

func (s *RejectionStore) Create(ctx context.Context, rejection model.RejectedItem) (*model.RejectedItem, error) {
	result := s.getDB(ctx).Create(&rejection)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating rejection: %w", result.Error)
	}
	return &rejection, nil
}

func (s *RejectionStore) Get(ctx context.Context, itemID uuid.UUID, itemType string) (*model.RejectedItem, error) {
	var rejection model.RejectedItem
	result := s.getDB(ctx).First(&rejection, "item_id = ? AND item_type = ?", itemID, itemType)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &rejection, nil
}

func (s *RejectionStore) List(ctx context.Context) ([]model.RejectedItem, error) {
	var rejections []model.RejectedItem
	result := s.getDB(ctx).Order("rejected_at DESC").Find(&rejections)
	if result.Error != nil {
		return nil, result.Error
	}
	return rejections, nil
}

func (s *RejectionStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
