package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	TransformationStatusRunning   = "running"
	TransformationStatusCompleted = "completed"
	TransformationStatusFailed    = "failed"
)

// TransformationJob is the bookkeeping record of one call to the external
// LLM transformation collaborator. Failures are recorded as data; the job's
// own attempt budget is independent of the quality-gate retry loop.
type TransformationJob struct {
	ID           uuid.UUID `gorm:"primaryKey;type:VARCHAR(255)"`
	SubjectType  string    `gorm:"not null;type:VARCHAR(100);index:transformation_jobs_subject_idx"`
	SubjectID    uuid.UUID `gorm:"not null;type:VARCHAR(255);index:transformation_jobs_subject_idx"`
	Status       string    `gorm:"not null;type:VARCHAR(20)"`
	TokensIn     int       `gorm:"not null;default:0"`
	TokensOut    int       `gorm:"not null;default:0"`
	CostUsd      float64   `gorm:"not null;default:0"`
	DurationMs   int64     `gorm:"not null;default:0"`
	ErrorMessage *string   `gorm:"type:TEXT"`
	CreatedAt    time.Time `gorm:"not null;default:now()"`
}

type TransformationJobList []TransformationJob
