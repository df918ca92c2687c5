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

type Pipeline interface {
	Create(ctx context.Context, pipeline model.Pipeline) (*model.Pipeline, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Pipeline, error)
	CreateTask(ctx context.Context, task model.PipelineTask) (*model.PipelineTask, error)
	GetTask(ctx context.Context, id uuid.UUID) (*model.PipelineTask, error)
	ListTasks(ctx context.Context, pipelineID uuid.UUID) (model.PipelineTaskList, error)
	UpdateTaskStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) error
	UpdateAggregate(ctx context.Context, id uuid.UUID, total, completed, failed, percentage int, status string) error
}

type PipelineStore struct {
	db *gorm.DB
}

// Make sure we conform to Pipeline interface
var _ Pipeline = (*PipelineStore)(nil)

func NewPipelineStore(db *gorm.DB) Pipeline {
	return &PipelineStore{db: db}
}

func (s *PipelineStore) Create(ctx context.Context, pipeline model.Pipeline) (*model.Pipeline, error) {
	result := s.getDB(ctx).Create(&pipeline)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating pipeline: %w", result.Error)
	}
	return &pipeline, nil
}

func (s *PipelineStore) Get(ctx context.Context, id uuid.UUID) (*model.Pipeline, error) {
	var pipeline model.Pipeline
	result := s.getDB(ctx).First(&pipeline, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &pipeline, nil
}

func (s *PipelineStore) CreateTask(ctx context.Context, task model.PipelineTask) (*model.PipelineTask, error) {
	result := s.getDB(ctx).Create(&task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating pipeline task: %w", result.Error)
	}
	return &task, nil
}

func (s *PipelineStore) GetTask(ctx context.Context, id uuid.UUID) (*model.PipelineTask, error) {
	var task model.PipelineTask
	result := s.getDB(ctx).First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

func (s *PipelineStore) ListTasks(ctx context.Context, pipelineID uuid.UUID) (model.PipelineTaskList, error) {
	var tasks model.PipelineTaskList
	result := s.getDB(ctx).
		Where("pipeline_id = ?", pipelineID).
		Order("created_at").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

func (s *PipelineStore) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) error {
	now := time.Now()
	updates := map[string]any{"status": status, "updated_at": &now}
	if errorMessage != nil {
		updates["error_message"] = errorMessage
	}
	result := s.getDB(ctx).Model(&model.PipelineTask{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating task status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// UpdateAggregate overwrites the derived counters. Callers recompute from
// the full task set; this never increments.
func (s *PipelineStore) UpdateAggregate(ctx context.Context, id uuid.UUID, total, completed, failed, percentage int, status string) error {
	now := time.Now()
	result := s.getDB(ctx).Model(&model.Pipeline{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_tasks":         total,
			"completed_tasks":     completed,
			"failed_tasks":        failed,
			"progress_percentage": percentage,
			"status":              status,
			"updated_at":          &now,
		})
	if result.Error != nil {
		return fmt.Errorf("updating pipeline aggregate: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *PipelineStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
