package service

import (
	"bytes"
	"encoding/json"
	"errors"

	"context"

	"github.com/google/uuid"

	"github.com/lingualab/curator/internal/events"
	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/internal/store/model"
	"github.com/lingualab/curator/pkg/log"
	"github.com/lingualab/curator/pkg/metrics"
)

// nextState is the fixed lifecycle graph. Linear by design: no skips, no
// cycles, no reverse edges. Rejection exits the graph through Reject.
var nextState = map[model.ItemState]model.ItemState{
	model.ItemStateDraft:     model.ItemStateCandidate,
	model.ItemStateCandidate: model.ItemStateValidated,
	model.ItemStateValidated: model.ItemStateApproved,
}

// LegalTransition reports whether (from, to) is an edge of the state graph.
func LegalTransition(from, to model.ItemState) bool {
	next, ok := nextState[from]
	return ok && next == to
}

// TransitionService validates and records lifecycle moves. Writes are
// linearized per item through an optimistic state guard rather than locks.
type TransitionService struct {
	store    store.Store
	producer *events.EventProducer
	logger   *log.StructuredLogger
}

func NewTransitionService(store store.Store, producer *events.EventProducer) *TransitionService {
	return &TransitionService{
		store:    store,
		producer: producer,
		logger:   log.NewDebugLogger("transition_service"),
	}
}

// Transition moves the item to toState, updating the cached state and
// appending the immutable event in one transaction. Returns
// ErrIllegalTransition for edges outside the graph and
// ErrConcurrentModification when another transition won the race.
func (s *TransitionService) Transition(ctx context.Context, itemID uuid.UUID, itemType string, toState model.ItemState, metadata map[string]any) error {
	tracer := s.logger.WithContext(ctx).Operation("transition").
		WithUUID("item_id", itemID).
		WithString("item_type", itemType).
		WithString("to_state", string(toState)).
		Build()

	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	item, err := s.store.Item().Get(ctx, itemID, itemType)
	if err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrItemNotFound(itemID)
		}
		return err
	}

	fromState := item.State
	if !LegalTransition(fromState, toState) {
		_, _ = store.Rollback(ctx)
		tracer.Error(NewErrIllegalTransition(fromState, toState)).Log()
		return NewErrIllegalTransition(fromState, toState)
	}

	if err := s.store.Item().UpdateState(ctx, itemID, itemType, fromState, toState); err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrStaleRecord) {
			return NewErrConcurrentModification(itemID, itemType)
		}
		return err
	}

	event := model.StateTransitionEvent{
		ItemID:    itemID,
		ItemType:  itemType,
		FromState: fromState,
		ToState:   toState,
	}
	if metadata != nil {
		event.Metadata = model.MakeJSONField(metadata)
	}
	if _, err := s.store.Transition().Append(ctx, event); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	if _, err := store.Commit(ctx); err != nil {
		return err
	}

	metrics.IncreaseTransitionsTotalMetric(string(fromState), string(toState))
	s.emit(ctx, events.ItemTransitionedKind, events.ItemTransitionEvent{
		ItemID:    itemID.String(),
		ItemType:  itemType,
		FromState: string(fromState),
		ToState:   string(toState),
	})

	tracer.Success().WithString("from_state", string(fromState)).Log()
	return nil
}

// Reject writes the terminal rejection record and removes the item from
// pipeline consideration. The event log keeps the item's walk through the
// graph; rejection is not a backward edge.
func (s *TransitionService) Reject(ctx context.Context, itemID uuid.UUID, itemType, reason string, feedbackID *uuid.UUID, gateName *string) error {
	tracer := s.logger.WithContext(ctx).Operation("reject").
		WithUUID("item_id", itemID).
		WithString("item_type", itemType).
		WithString("reason", reason).
		Build()

	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	if _, err := s.store.Item().Get(ctx, itemID, itemType); err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrItemNotFound(itemID)
		}
		return err
	}

	rejection := model.RejectedItem{
		ItemID:     itemID,
		ItemType:   itemType,
		Reason:     reason,
		FeedbackID: feedbackID,
		GateName:   gateName,
	}
	if _, err := s.store.Rejection().Create(ctx, rejection); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	if err := s.store.Item().Delete(ctx, itemID, itemType); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	if _, err := store.Commit(ctx); err != nil {
		return err
	}

	metrics.IncreaseRejectionsTotalMetric(reason)
	s.emit(ctx, events.ItemRejectedKind, events.ItemRejectedEvent{
		ItemID:   itemID.String(),
		ItemType: itemType,
		Reason:   reason,
	})

	tracer.Success().Log()
	return nil
}

// Approve is the operator's entry point for the final edge.
func (s *TransitionService) Approve(ctx context.Context, itemID uuid.UUID, itemType string, metadata map[string]any) error {
	return s.Transition(ctx, itemID, itemType, model.ItemStateApproved, metadata)
}

// History returns the item's full transition log, oldest first.
func (s *TransitionService) History(ctx context.Context, itemID uuid.UUID, itemType string) (model.StateTransitionEventList, error) {
	return s.store.Transition().ListForItem(ctx, itemID, itemType)
}

func (s *TransitionService) emit(ctx context.Context, kind string, payload any) {
	if s.producer == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = s.producer.Write(ctx, kind, bytes.NewReader(data))
}
