package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	GateStatusPassed = "passed"
	GateStatusFailed = "failed"
)

// QualityGateResult records one attempt of one gate against one entity.
// The unique index is the backstop for attempt-number linearization: a gate
// cannot be re-run at the same attempt index.
type QualityGateResult struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	EntityType      string    `gorm:"not null;type:VARCHAR(100);uniqueIndex:gate_results_attempt_key"`
	EntityID        uuid.UUID `gorm:"not null;type:VARCHAR(255);uniqueIndex:gate_results_attempt_key"`
	GateName        string    `gorm:"not null;type:VARCHAR(100);uniqueIndex:gate_results_attempt_key"`
	Status          string    `gorm:"not null;type:VARCHAR(20)"`
	AttemptNumber   int       `gorm:"not null;uniqueIndex:gate_results_attempt_key"`
	Score           *float64
	ErrorMessage    *string                    `gorm:"type:TEXT"`
	Metadata        *JSONField[map[string]any] `gorm:"type:jsonb"`
	ExecutionTimeMs int64     `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null;default:now()"`
}

type QualityGateResultList []QualityGateResult
