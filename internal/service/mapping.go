package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/internal/store/model"
	"github.com/lingualab/curator/pkg/log"
)

// MappingService records topic mappings produced by the LLM collaborator
// and classifies them by confidence: at or above the threshold they are
// accepted automatically, below it they wait for a human.
type MappingService struct {
	store            store.Store
	autoMapThreshold float64
	logger           *log.StructuredLogger
}

func NewMappingService(store store.Store, autoMapThreshold float64) *MappingService {
	return &MappingService{
		store:            store,
		autoMapThreshold: autoMapThreshold,
		logger:           log.NewDebugLogger("mapping_service"),
	}
}

// Classify returns the state a fresh mapping lands in for the given
// confidence score.
func (s *MappingService) Classify(confidence float64) string {
	if confidence >= s.autoMapThreshold {
		return model.MappingStateAutoMapped
	}
	return model.MappingStateNeedsReview
}

// RecordMapping persists a mapping in its classified state.
func (s *MappingService) RecordMapping(ctx context.Context, chunkID uuid.UUID, topic string, confidence float64) (*model.TopicMapping, error) {
	tracer := s.logger.WithContext(ctx).Operation("record_mapping").
		WithUUID("chunk_id", chunkID).
		WithString("topic", topic).
		WithFloat("confidence", confidence).
		Build()

	if _, err := s.store.Document().GetChunk(ctx, chunkID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrResourceNotFound(chunkID, "document chunk")
		}
		return nil, err
	}

	mapping := model.TopicMapping{
		ID:              uuid.New(),
		ChunkID:         chunkID,
		Topic:           topic,
		ConfidenceScore: confidence,
		State:           s.Classify(confidence),
	}
	created, err := s.store.Mapping().Create(ctx, mapping)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().WithString("state", created.State).Log()
	return created, nil
}

// Confirm moves a needs_review mapping to confirmed after human review.
func (s *MappingService) Confirm(ctx context.Context, mappingID uuid.UUID) error {
	err := s.store.Mapping().UpdateState(ctx, mappingID, model.MappingStateNeedsReview, model.MappingStateConfirmed)
	if err != nil {
		if errors.Is(err, store.ErrStaleRecord) {
			return NewErrMappingNotFound(mappingID)
		}
		return err
	}
	return nil
}
