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

type Mapping interface {
	Create(ctx context.Context, mapping model.TopicMapping) (*model.TopicMapping, error)
	Get(ctx context.Context, id uuid.UUID) (*model.TopicMapping, error)
	List(ctx context.Context, filter *MappingQueryFilter) (model.TopicMappingList, error)
	UpdateState(ctx context.Context, id uuid.UUID, from, to string) error
}

type MappingStore struct {
	db *gorm.DB
}

// Make sure we conform to Mapping interface
var _ Mapping = (*MappingStore)(nil)

func NewMappingStore(db *gorm.DB) Mapping {
	return &MappingStore{db: db}
}

func (s *MappingStore) Create(ctx context.Context, mapping model.TopicMapping) (*model.TopicMapping, error) {
	result := s.getDB(ctx).Create(&mapping)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating topic mapping: %w", result.Error)
	}
	return &mapping, nil
}

func (s *MappingStore) Get(ctx context.Context, id uuid.UUID) (*model.TopicMapping, error) {
	var mapping model.TopicMapping
	result := s.getDB(ctx).First(&mapping, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &mapping, nil
}

func (s *MappingStore) List(ctx context.Context, filter *MappingQueryFilter) (model.TopicMappingList, error) {
	var mappings model.TopicMappingList
	tx := s.getDB(ctx).Model(&mappings).Order("created_at")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&mappings)
	if result.Error != nil {
		return nil, result.Error
	}
	return mappings, nil
}

func (s *MappingStore) UpdateState(ctx context.Context, id uuid.UUID, from, to string) error {
	now := time.Now()
	result := s.getDB(ctx).Model(&model.TopicMapping{}).
		Where("id = ? AND state = ?", id, from).
		Updates(map[string]any{"state": to, "updated_at": &now})
	if result.Error != nil {
		return fmt.Errorf("updating mapping state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleRecord
	}
	return nil
}

func (s *MappingStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
