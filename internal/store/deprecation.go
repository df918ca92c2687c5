package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/store/model"
)

type Deprecation interface {
	Create(ctx context.Context, deprecation model.Deprecation) (*model.Deprecation, error)
	Get(ctx context.Context, itemID uuid.UUID, itemType string) (*model.Deprecation, error)
}

type DeprecationStore struct {
	db *gorm.DB
}

// Make sure we conform to Deprecation interface
var _ Deprecation = (*DeprecationStore)(nil)

func NewDeprecationStore(db *gorm.DB) Deprecation {
	return &DeprecationStore{db: db}
}

// Create is write-once: a second deprecation for the same item returns
// ErrDuplicateKey.
func (s *DeprecationStore) Create(ctx context.Context, deprecation model.Deprecation) (*model.Deprecation, error) {
	result := s.getDB(ctx).Create(&deprecation)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating deprecation: %w", result.Error)
	}
	return &deprecation, nil
}

func (s *DeprecationStore) Get(ctx context.Context, itemID uuid.UUID, itemType string) (*model.Deprecation, error) {
	var deprecation model.Deprecation
	result := s.getDB(ctx).First(&deprecation, "item_id = ? AND item_type = ?", itemID, itemType)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &deprecation, nil
}

func (s *DeprecationStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
