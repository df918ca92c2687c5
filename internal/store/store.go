package store

import (
	"context"

	"github.com/lingualab/curator/internal/store/model"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Lease() Lease
	Item() Item
	Transition() Transition
	Gate() Gate
	Retry() Retry
	Feedback() Feedback
	Pipeline() Pipeline
	Rejection() Rejection
	Deprecation() Deprecation
	Mapping() Mapping
	Transformation() Transformation
	Document() Document
	Migrate() error
	Close() error
}

type DataStore struct {
	db             *gorm.DB
	lease          Lease
	item           Item
	transition     Transition
	gate           Gate
	retry          Retry
	feedback       Feedback
	pipeline       Pipeline
	rejection      Rejection
	deprecation    Deprecation
	mapping        Mapping
	transformation Transformation
	document       Document
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:             db,
		lease:          NewLeaseStore(db),
		item:           NewItemStore(db),
		transition:     NewTransitionStore(db),
		gate:           NewGateStore(db),
		retry:          NewRetryStore(db),
		feedback:       NewFeedbackStore(db),
		pipeline:       NewPipelineStore(db),
		rejection:      NewRejectionStore(db),
		deprecation:    NewDeprecationStore(db),
		mapping:        NewMappingStore(db),
		transformation: NewTransformationStore(db),
		document:       NewDocumentStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Lease() Lease {
	return s.lease
}

func (s *DataStore) Item() Item {
	return s.item
}

func (s *DataStore) Transition() Transition {
	return s.transition
}

func (s *DataStore) Gate() Gate {
	return s.gate
}

func (s *DataStore) Retry() Retry {
	return s.retry
}

func (s *DataStore) Feedback() Feedback {
	return s.feedback
}

func (s *DataStore) Pipeline() Pipeline {
	return s.pipeline
}

func (s *DataStore) Rejection() Rejection {
	return s.rejection
}

func (s *DataStore) Deprecation() Deprecation {
	return s.deprecation
}

func (s *DataStore) Mapping() Mapping {
	return s.mapping
}

func (s *DataStore) Transformation() Transformation {
	return s.transformation
}

func (s *DataStore) Document() Document {
	return s.document
}

// Migrate creates the schema with gorm's migrator. Postgres deployments run
// the goose SQL migrations instead; this path serves sqlite dev and tests.
func (s *DataStore) Migrate() error {
	return s.db.AutoMigrate(
		&model.WorkLease{},
		&model.CurationItem{},
		&model.StateTransitionEvent{},
		&model.QualityGateResult{},
		&model.RetryQueueEntry{},
		&model.OperatorFeedback{},
		&model.ItemVersion{},
		&model.RejectedItem{},
		&model.Deprecation{},
		&model.Pipeline{},
		&model.PipelineTask{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.TopicMapping{},
		&model.TransformationJob{},
	)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
