package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/store/model"
)

type Feedback interface {
	Create(ctx context.Context, feedback model.OperatorFeedback) (*model.OperatorFeedback, error)
	Get(ctx context.Context, id uuid.UUID) (*model.OperatorFeedback, error)
	ListForItem(ctx context.Context, itemID uuid.UUID, itemType string) ([]model.OperatorFeedback, error)
	CreateVersion(ctx context.Context, version model.ItemVersion) (*model.ItemVersion, error)
	NextVersion(ctx context.Context, itemID uuid.UUID) (int, error)
	ListVersions(ctx context.Context, itemID uuid.UUID) (model.ItemVersionList, error)
}

type FeedbackStore struct {
	db *gorm.DB
}

// Make sure we conform to Feedback interface
var _ Feedback = (*FeedbackStore)(nil)

func NewFeedbackStore(db *gorm.DB) Feedback {
	return &FeedbackStore{db: db}
}

func (s *FeedbackStore) Create(ctx context.Context, feedback model.OperatorFeedback) (*model.OperatorFeedback, error) {
	result := s.getDB(ctx).Create(&feedback)
	if result.Error != nil {
		return nil, fmt.Errorf("creating feedback: %w", result.Error)
	}
	return &feedback, nil
}

func (s *FeedbackStore) Get(ctx context.Context, id uuid.UUID) (*model.OperatorFeedback, error) {
	var feedback model.OperatorFeedback
	result := s.getDB(ctx).First(&feedback, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &feedback, nil
}

func (s *FeedbackStore) ListForItem(ctx context.Context, itemID uuid.UUID, itemType string) ([]model.OperatorFeedback, error) {
	var feedbacks []model.OperatorFeedback
	result := s.getDB(ctx).
		Where("item_id = ? AND item_type = ?", itemID, itemType).
		Order("created_at").
		Find(&feedbacks)
	if result.Error != nil {
		return nil, result.Error
	}
	return feedbacks, nil
}

// NextVersion computes the strictly increasing version number per item. It
// must share a transaction with CreateVersion; the unique index on
// (item_id, version_number) backstops races.
func (s *FeedbackStore) NextVersion(ctx context.Context, itemID uuid.UUID) (int, error) {
	var max struct{ N int }
	result := s.getDB(ctx).Model(&model.ItemVersion{}).
		Select("COALESCE(MAX(version_number), 0) AS n").
		Where("item_id = ?", itemID).
		Scan(&max)
	if result.Error != nil {
		return 0, fmt.Errorf("computing next version: %w", result.Error)
	}
	return max.N + 1, nil
}

func (s *FeedbackStore) CreateVersion(ctx context.Context, version model.ItemVersion) (*model.ItemVersion, error) {
	result := s.getDB(ctx).Create(&version)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating item version: %w", result.Error)
	}
	return &version, nil
}

func (s *FeedbackStore) ListVersions(ctx context.Context, itemID uuid.UUID) (model.ItemVersionList, error) {
	var versions model.ItemVersionList
	result := s.getDB(ctx).
		Where("item_id = ?", itemID).
		Order("version_number").
		Find(&versions)
	if result.Error != nil {
		return nil, result.Error
	}
	return versions, nil
}

func (s *FeedbackStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
