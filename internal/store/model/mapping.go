package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MappingStatePending     = "pending"
	MappingStateAutoMapped  = "auto_mapped"
	MappingStateNeedsReview = "needs_review"
	MappingStateConfirmed   = "confirmed"
)

// TopicMapping links a document chunk to a curriculum topic with a model
// confidence score. High-confidence mappings are auto-accepted.
type TopicMapping struct {
	ID              uuid.UUID `gorm:"primaryKey;type:VARCHAR(255)"`
	ChunkID         uuid.UUID `gorm:"not null;type:VARCHAR(255);index:topic_mappings_chunk_idx"`
	Topic           string    `gorm:"not null;type:VARCHAR(255)"`
	ConfidenceScore float64   `gorm:"not null"`
	State           string    `gorm:"not null;type:VARCHAR(20);index:topic_mappings_state_idx"`
	CreatedAt       time.Time `gorm:"not null;default:now()"`
	UpdatedAt       *time.Time
}

type TopicMappingList []TopicMapping
