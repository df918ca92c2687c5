package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	PipelineStatusProcessing = "processing"
	PipelineStatusCompleted  = "completed"
	PipelineStatusFailed     = "failed"

	TaskStatusPending    = "pending"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

// Pipeline caches a derived view over its tasks. The counters are recomputed
// from the task set on every status change, never incremented in place.
type Pipeline struct {
	ID                 uuid.UUID `gorm:"primaryKey;type:VARCHAR(255)"`
	Name               string    `gorm:"not null;type:VARCHAR(255)"`
	Status             string    `gorm:"not null;type:VARCHAR(20)"`
	TotalTasks         int       `gorm:"not null;default:0"`
	CompletedTasks     int       `gorm:"not null;default:0"`
	FailedTasks        int       `gorm:"not null;default:0"`
	ProgressPercentage int       `gorm:"not null;default:0"`
	CreatedAt          time.Time `gorm:"not null;default:now()"`
	UpdatedAt          *time.Time
	Tasks              []PipelineTask `gorm:"foreignKey:PipelineID;references:ID;constraint:OnDelete:CASCADE;"`
}

type PipelineTask struct {
	ID           uuid.UUID `gorm:"primaryKey;type:VARCHAR(255)"`
	PipelineID   uuid.UUID `gorm:"not null;type:VARCHAR(255);index:pipeline_tasks_pipeline_idx"`
	Kind         string    `gorm:"not null;type:VARCHAR(100)"`
	Status       string    `gorm:"not null;type:VARCHAR(20)"`
	ErrorMessage *string   `gorm:"type:TEXT"`
	CreatedAt    time.Time `gorm:"not null;default:now()"`
	UpdatedAt    *time.Time
}

type PipelineList []Pipeline
type PipelineTaskList []PipelineTask

func (p Pipeline) String() string {
	val, _ := json.Marshal(p)
	return string(val)
}
