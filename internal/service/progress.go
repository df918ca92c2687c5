package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/internal/store/model"
	"github.com/lingualab/curator/pkg/log"
)

// ProgressService keeps the denormalized pipeline counters consistent. The
// counters are recomputed from the full task set on every change, never
// incremented, so any interleaving of task updates self-heals.
type ProgressService struct {
	store  store.Store
	logger *log.StructuredLogger
}

func NewProgressService(store store.Store) *ProgressService {
	return &ProgressService{
		store:  store,
		logger: log.NewDebugLogger("progress_service"),
	}
}

// OnTaskStatusChanged recomputes the owning pipeline's aggregate in one
// atomic read-then-write. Also usable as a repair/backfill call.
func (s *ProgressService) OnTaskStatusChanged(ctx context.Context, pipelineID uuid.UUID) error {
	tracer := s.logger.WithContext(ctx).Operation("recompute_progress").
		WithUUID("pipeline_id", pipelineID).
		Build()

	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	if _, err := s.store.Pipeline().Get(ctx, pipelineID); err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrPipelineNotFound(pipelineID)
		}
		return err
	}

	tasks, err := s.store.Pipeline().ListTasks(ctx, pipelineID)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	total, completed, failed, status, percentage := summarize(tasks)
	if err := s.store.Pipeline().UpdateAggregate(ctx, pipelineID, total, completed, failed, percentage, status); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	if _, err := store.Commit(ctx); err != nil {
		return err
	}

	tracer.Success().
		WithInt("total", total).
		WithInt("completed", completed).
		WithInt("failed", failed).
		WithString("status", status).
		Log()
	return nil
}

// UpdateTaskStatus changes a task and recomputes the owning pipeline's
// aggregate in the same transaction, mirroring the trigger-on-write pattern.
func (s *ProgressService) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status string, errorMessage *string) error {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	task, err := s.store.Pipeline().GetTask(ctx, taskID)
	if err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrResourceNotFound(taskID, "pipeline task")
		}
		return err
	}

	if err := s.store.Pipeline().UpdateTaskStatus(ctx, taskID, status, errorMessage); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	tasks, err := s.store.Pipeline().ListTasks(ctx, task.PipelineID)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}
	total, completed, failed, pipelineStatus, percentage := summarize(tasks)
	if err := s.store.Pipeline().UpdateAggregate(ctx, task.PipelineID, total, completed, failed, percentage, pipelineStatus); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	_, err = store.Commit(ctx)
	return err
}

// summarize derives the aggregate view: failed wins over completed, any
// pending or processing task keeps the pipeline processing.
func summarize(tasks model.PipelineTaskList) (total, completed, failed int, status string, percentage int) {
	total = len(tasks)
	pending := 0
	for _, task := range tasks {
		switch task.Status {
		case model.TaskStatusCompleted:
			completed++
		case model.TaskStatusFailed:
			failed++
		default:
			pending++
		}
	}

	switch {
	case failed > 0:
		status = model.PipelineStatusFailed
	case pending == 0:
		status = model.PipelineStatusCompleted
	default:
		status = model.PipelineStatusProcessing
	}

	percentage = ProgressPercentage(completed, total)
	return total, completed, failed, status, percentage
}

// ProgressPercentage is floor(100*completed/total), clamped to 100, and 0
// for an empty pipeline.
func ProgressPercentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	p := (100 * completed) / total
	if p > 100 {
		p = 100
	}
	return p
}
