package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lingualab/curator/internal/service/mappers"
	"github.com/lingualab/curator/internal/similarity"
	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/internal/store/model"
	"github.com/lingualab/curator/pkg/log"
	"github.com/lingualab/curator/pkg/metrics"
)

const rejectionReasonRetriesExhausted = "retry limit exceeded"

// RetryService turns operator rejections into bounded, versioned
// re-attempts. Feedback is always recorded; only reject and revise actions
// consume retry budget.
type RetryService struct {
	store       store.Store
	leases      *LeaseService
	transitions *TransitionService
	transformer Transformer
	maxRetries  int
	baseBackoff time.Duration
	validate    *validator.Validate
	logger      *log.StructuredLogger
}

func NewRetryService(store store.Store, leases *LeaseService, transitions *TransitionService, transformer Transformer, maxRetries int, baseBackoff time.Duration) *RetryService {
	return &RetryService{
		store:       store,
		leases:      leases,
		transitions: transitions,
		transformer: transformer,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		validate:    validator.New(),
		logger:      log.NewDebugLogger("retry_service"),
	}
}

// RecordFeedback stores the operator's verdict and, for reject/revise,
// snapshots the item's current content as a new version. Flag actions only
// leave a note; they never alter pipeline state.
func (s *RetryService) RecordFeedback(ctx context.Context, form mappers.FeedbackForm) (uuid.UUID, error) {
	tracer := s.logger.WithContext(ctx).Operation("record_feedback").
		WithUUID("item_id", form.ItemID).
		WithString("item_type", form.ItemType).
		WithString("action", form.Action).
		Build()

	if err := s.validate.Struct(form); err != nil {
		return uuid.Nil, NewErrInvalidFeedback(err)
	}

	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	item, err := s.store.Item().Get(ctx, form.ItemID, form.ItemType)
	if err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrRecordNotFound) {
			return uuid.Nil, NewErrItemNotFound(form.ItemID)
		}
		return uuid.Nil, err
	}

	feedback, err := s.store.Feedback().Create(ctx, form.ToModel())
	if err != nil {
		_, _ = store.Rollback(ctx)
		return uuid.Nil, err
	}

	if form.Action != model.FeedbackActionFlag {
		versionNumber, err := s.store.Feedback().NextVersion(ctx, form.ItemID)
		if err != nil {
			_, _ = store.Rollback(ctx)
			return uuid.Nil, err
		}
		version := model.ItemVersion{
			ItemID:        form.ItemID,
			ItemType:      form.ItemType,
			VersionNumber: versionNumber,
			Content:       item.Content,
			FeedbackID:    &feedback.ID,
		}
		if _, err := s.store.Feedback().CreateVersion(ctx, version); err != nil {
			_, _ = store.Rollback(ctx)
			return uuid.Nil, err
		}
	}

	if _, err := store.Commit(ctx); err != nil {
		return uuid.Nil, err
	}

	tracer.Success().WithParam("feedback_id", feedback.ID).Log()
	return feedback.ID, nil
}

// EnqueueRetry schedules a regeneration attempt. Once the budget is spent it
// returns ErrRetryLimitExceeded and moves the item to a permanent rejection
// instead of creating another entry. Idempotent at the limit.
func (s *RetryService) EnqueueRetry(ctx context.Context, itemID uuid.UUID, itemType string, feedbackID uuid.UUID) error {
	tracer := s.logger.WithContext(ctx).Operation("enqueue_retry").
		WithUUID("item_id", itemID).
		WithString("item_type", itemType).
		Build()

	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	used, err := s.store.Retry().MaxRetryCount(ctx, itemID, itemType)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	if used >= s.maxRetries {
		if err := s.rejectExhausted(ctx, itemID, itemType, feedbackID); err != nil {
			_, _ = store.Rollback(ctx)
			return err
		}
		if _, err := store.Commit(ctx); err != nil {
			return err
		}
		tracer.Error(NewErrRetryLimitExceeded(itemID, itemType, s.maxRetries)).Log()
		return NewErrRetryLimitExceeded(itemID, itemType, s.maxRetries)
	}

	entry := model.RetryQueueEntry{
		ItemID:      itemID,
		ItemType:    itemType,
		FeedbackID:  feedbackID,
		Status:      model.RetryStatusPending,
		RetryCount:  used + 1,
		MaxRetries:  s.maxRetries,
		ScheduledAt: time.Now().Add(s.backoff(used)),
	}
	if _, err := s.store.Retry().Create(ctx, entry); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	if _, err := store.Commit(ctx); err != nil {
		return err
	}

	s.updateQueueDepth(ctx)
	tracer.Success().WithInt("retry_count", used+1).Log()
	return nil
}

// rejectExhausted writes the permanent rejection inside the caller's
// transaction. The item may already be gone when two workers race to the
// limit; that is fine, the rejection record is what matters.
func (s *RetryService) rejectExhausted(ctx context.Context, itemID uuid.UUID, itemType string, feedbackID uuid.UUID) error {
	_, err := s.store.Rejection().Get(ctx, itemID, itemType)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return err
	}

	rejection := model.RejectedItem{
		ItemID:     itemID,
		ItemType:   itemType,
		Reason:     rejectionReasonRetriesExhausted,
		FeedbackID: &feedbackID,
	}
	if _, err := s.store.Rejection().Create(ctx, rejection); err != nil && !errors.Is(err, store.ErrDuplicateKey) {
		return err
	}
	if err := s.store.Item().Delete(ctx, itemID, itemType); err != nil {
		return err
	}
	metrics.IncreaseRejectionsTotalMetric(rejectionReasonRetriesExhausted)
	return nil
}

// backoff grows exponentially with the number of retries already used.
func (s *RetryService) backoff(used int) time.Duration {
	return s.baseBackoff << used
}

// ProcessDue claims and processes every due pending entry. Called by the
// background consumer on each tick; safe to run from many workers because
// each entry is claimed under the item's lease.
func (s *RetryService) ProcessDue(ctx context.Context) (int, error) {
	entries, err := s.store.Retry().List(ctx, store.NewRetryQueryFilter().
		ByStatus(model.RetryStatusPending).
		DueBefore(time.Now()))
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if ok := s.processEntry(ctx, entry); ok {
			processed++
		}
	}

	s.updateQueueDepth(ctx)
	return processed, nil
}

// processEntry runs one regeneration attempt under the item's lease. The
// lease is held for the full duration of processing, not just the state
// mutation. Returns false when the entry was skipped (contention).
func (s *RetryService) processEntry(ctx context.Context, entry model.RetryQueueEntry) bool {
	tracer := s.logger.WithContext(ctx).Operation("process_retry").
		WithParam("entry_id", entry.ID).
		WithUUID("item_id", entry.ItemID).
		WithInt("retry_count", entry.RetryCount).
		Build()

	handle, err := s.leases.Acquire(ctx, WorkID(entry.ItemType, entry.ItemID.String()))
	if err != nil {
		var leased *ErrAlreadyLeased
		if errors.As(err, &leased) {
			return false
		}
		tracer.Error(err).Log()
		return false
	}
	defer func() {
		_ = s.leases.Release(ctx, handle)
	}()

	if err := s.store.Retry().UpdateStatus(ctx, entry.ID, model.RetryStatusPending, model.RetryStatusProcessing, nil); err != nil {
		// another consumer claimed it between the list and the lease
		return false
	}

	// a reclaimed lease means possibly partial work: re-validate the item
	item, err := s.store.Item().Get(ctx, entry.ItemID, entry.ItemType)
	if err != nil {
		msg := "item no longer in pipeline"
		_ = s.store.Retry().UpdateStatus(ctx, entry.ID, model.RetryStatusProcessing, model.RetryStatusFailed, &msg)
		tracer.Error(err).Log()
		return true
	}

	feedback, err := s.store.Feedback().Get(ctx, entry.FeedbackID)
	if err != nil {
		msg := "feedback record missing"
		_ = s.store.Retry().UpdateStatus(ctx, entry.ID, model.RetryStatusProcessing, model.RetryStatusFailed, &msg)
		tracer.Error(err).Log()
		return true
	}

	result, err := s.transform(ctx, item, feedback)
	if err != nil {
		msg := err.Error()
		_ = s.store.Retry().UpdateStatus(ctx, entry.ID, model.RetryStatusProcessing, model.RetryStatusFailed, &msg)
		if enqueueErr := s.EnqueueRetry(ctx, entry.ItemID, entry.ItemType, entry.FeedbackID); enqueueErr != nil {
			var limit *ErrRetryLimitExceeded
			if !errors.As(enqueueErr, &limit) {
				tracer.Error(enqueueErr).Log()
				return true
			}
		}
		tracer.Error(err).Log()
		return true
	}

	normalized := ""
	if text, ok := result.Parsed["text"].(string); ok {
		normalized = similarity.Normalize(text)
	}
	if err := s.store.Item().UpdateContent(ctx, entry.ItemID, entry.ItemType, result.Parsed, normalized); err != nil {
		msg := err.Error()
		_ = s.store.Retry().UpdateStatus(ctx, entry.ID, model.RetryStatusProcessing, model.RetryStatusFailed, &msg)
		tracer.Error(err).Log()
		return true
	}

	// regenerated drafts advance for re-review; items further along stay
	// put until the gates and the operator weigh in again
	if item.State == model.ItemStateDraft {
		if err := s.transitions.Transition(ctx, entry.ItemID, entry.ItemType, model.ItemStateCandidate, map[string]any{
			"regenerated": true,
			"retry_count": entry.RetryCount,
		}); err != nil {
			tracer.Error(err).Log()
		}
	}

	if err := s.store.Retry().UpdateStatus(ctx, entry.ID, model.RetryStatusProcessing, model.RetryStatusCompleted, nil); err != nil {
		tracer.Error(err).Log()
		return true
	}

	tracer.Success().Log()
	return true
}

// transform wraps the external collaborator call with a TransformationJob
// bookkeeping record. Failures are recorded as data on the job row.
func (s *RetryService) transform(ctx context.Context, item *model.CurationItem, feedback *model.OperatorFeedback) (*TransformResult, error) {
	job := model.TransformationJob{
		ID:          uuid.New(),
		SubjectType: item.ItemType,
		SubjectID:   item.ItemID,
		Status:      model.TransformationStatusRunning,
	}
	created, err := s.store.Transformation().Create(ctx, job)
	if err != nil {
		return nil, err
	}

	req := TransformRequest{
		SubjectType: item.ItemType,
		SubjectID:   item.ItemID.String(),
		Language:    item.Language,
		Level:       item.Level,
		SourceText:  item.NormalizedText,
		Feedback:    feedback.Comment,
	}
	if feedback.SuggestedFix != nil {
		req.SuggestedFix = *feedback.SuggestedFix
	}

	result, err := s.transformer.Transform(ctx, req)
	if err != nil {
		msg := err.Error()
		created.Status = model.TransformationStatusFailed
		created.ErrorMessage = &msg
		_ = s.store.Transformation().Update(ctx, *created)
		return nil, NewErrExternalServiceFailure("transformer", err)
	}

	created.Status = model.TransformationStatusCompleted
	created.TokensIn = result.TokensIn
	created.TokensOut = result.TokensOut
	created.CostUsd = result.CostUsd
	created.DurationMs = result.Duration.Milliseconds()
	if err := s.store.Transformation().Update(ctx, *created); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RetryService) updateQueueDepth(ctx context.Context) {
	if depth, err := s.store.Retry().CountPending(ctx); err == nil {
		metrics.UpdateRetryQueueDepthMetric(depth)
	}
}
