package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/store/model"
)

type Transformation interface {
	Create(ctx context.Context, job model.TransformationJob) (*model.TransformationJob, error)
	Get(ctx context.Context, id uuid.UUID) (*model.TransformationJob, error)
	Update(ctx context.Context, job model.TransformationJob) error
	CountForSubject(ctx context.Context, subjectType string, subjectID uuid.UUID) (int64, error)
}

type TransformationStore struct {
	db *gorm.DB
}

// Make sure we conform to Transformation interface
var _ Transformation = (*TransformationStore)(nil)

func NewTransformationStore(db *gorm.DB) Transformation {
	return &TransformationStore{db: db}
}

func (s *TransformationStore) Create(ctx context.Context, job model.TransformationJob) (*model.TransformationJob, error) {
	result := s.getDB(ctx).Create(&job)
	if result.Error != nil {
		return nil, fmt.Errorf("creating transformation job: %w", result.Error)
	}
	return &job, nil
}

func (s *TransformationStore) Get(ctx context.Context, id uuid.UUID) (*model.TransformationJob, error) {
	var job model.TransformationJob
	result := s.getDB(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &job, nil
}

func (s *TransformationStore) Update(ctx context.Context, job model.TransformationJob) error {
	result := s.getDB(ctx).Model(&model.TransformationJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":        job.Status,
			"tokens_in":     job.TokensIn,
			"tokens_out":    job.TokensOut,
			"cost_usd":      job.CostUsd,
			"duration_ms":   job.DurationMs,
			"error_message": job.ErrorMessage,
		})
	if result.Error != nil {
		return fmt.Errorf("updating transformation job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *TransformationStore) CountForSubject(ctx context.Context, subjectType string, subjectID uuid.UUID) (int64, error) {
	var count int64
	result := s.getDB(ctx).Model(&model.TransformationJob{}).
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

func (s *TransformationStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
