package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/store/model"
)

type Item interface {
	Create(ctx context.Context, item model.CurationItem) (*model.CurationItem, error)
	Get(ctx context.Context, itemID uuid.UUID, itemType string) (*model.CurationItem, error)
	List(ctx context.Context, filter *ItemQueryFilter) (model.CurationItemList, error)
	UpdateState(ctx context.Context, itemID uuid.UUID, itemType string, from, to model.ItemState) error
	UpdateContent(ctx context.Context, itemID uuid.UUID, itemType string, content map[string]any, normalizedText string) error
	Delete(ctx context.Context, itemID uuid.UUID, itemType string) error
}

type ItemStore struct {
	db *gorm.DB
}

// Make sure we conform to Item interface
var _ Item = (*ItemStore)(nil)

func NewItemStore(db *gorm.DB) Item {
	return &ItemStore{db: db}
}

func (s *ItemStore) Create(ctx context.Context, item model.CurationItem) (*model.CurationItem, error) {
	result := s.getDB(ctx).Create(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating curation item: %w", result.Error)
	}
	return &item, nil
}

func (s *ItemStore) Get(ctx context.Context, itemID uuid.UUID, itemType string) (*model.CurationItem, error) {
	var item model.CurationItem
	result := s.getDB(ctx).First(&item, "item_id = ? AND item_type = ?", itemID, itemType)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &item, nil
}

func (s *ItemStore) List(ctx context.Context, filter *ItemQueryFilter) (model.CurationItemList, error) {
	var items model.CurationItemList
	tx := s.getDB(ctx).Model(&items).Order("created_at")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	return items, nil
}

// UpdateState moves the cached state with an optimistic guard on the state
// read by the caller. Zero rows affected means another transition won the
// race (or the item vanished): ErrStaleRecord either way.
func (s *ItemStore) UpdateState(ctx context.Context, itemID uuid.UUID, itemType string, from, to model.ItemState) error {
	now := time.Now()
	result := s.getDB(ctx).Model(&model.CurationItem{}).
		Where("item_id = ? AND item_type = ? AND state = ?", itemID, itemType, from).
		Updates(map[string]any{"state": to, "updated_at": &now})
	if result.Error != nil {
		return fmt.Errorf("updating item state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleRecord
	}
	return nil
}

func (s *ItemStore) UpdateContent(ctx context.Context, itemID uuid.UUID, itemType string, content map[string]any, normalizedText string) error {
	now := time.Now()
	result := s.getDB(ctx).Model(&model.CurationItem{}).
		Where("item_id = ? AND item_type = ?", itemID, itemType).
		Updates(map[string]any{
			"content":         model.MakeJSONField(content),
			"normalized_text": normalizedText,
			"updated_at":      &now,
		})
	if result.Error != nil {
		return fmt.Errorf("updating item content: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *ItemStore) Delete(ctx context.Context, itemID uuid.UUID, itemType string) error {
	result := s.getDB(ctx).Delete(&model.CurationItem{}, "item_id = ? AND item_type = ?", itemID, itemType)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (s *ItemStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
