package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/store/model"
)

type Transition interface {
	Append(ctx context.Context, event model.StateTransitionEvent) (*model.StateTransitionEvent, error)
	ListForItem(ctx context.Context, itemID uuid.UUID, itemType string) (model.StateTransitionEventList, error)
	Latest(ctx context.Context, itemID uuid.UUID, itemType string) (*model.StateTransitionEvent, error)
}

type TransitionStore struct {
	db *gorm.DB
}

// Make sure we conform to Transition interface
var _ Transition = (*TransitionStore)(nil)

func NewTransitionStore(db *gorm.DB) Transition {
	return &TransitionStore{db: db}
}

func (s *TransitionStore) Append(ctx context.Context, event model.StateTransitionEvent) (*model.StateTransitionEvent, error) {
	result := s.getDB(ctx).Create(&event)
	if result.Error != nil {
		return nil, fmt.Errorf("appending transition event: %w", result.Error)
	}
	return &event, nil
}

func (s *TransitionStore) ListForItem(ctx context.Context, itemID uuid.UUID, itemType string) (model.StateTransitionEventList, error) {
	var events model.StateTransitionEventList
	result := s.getDB(ctx).
		Where("item_id = ? AND item_type = ?", itemID, itemType).
		Order("id").
		Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}
	return events, nil
}

func (s *TransitionStore) Latest(ctx context.Context, itemID uuid.UUID, itemType string) (*model.StateTransitionEvent, error) {
	var event model.StateTransitionEvent
	result := s.getDB(ctx).
		Where("item_id = ? AND item_type = ?", itemID, itemType).
		Order("id DESC").
		First(&event)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &event, nil
}

func (s *TransitionStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
