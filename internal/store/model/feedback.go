package model

import (
	"time"

	"github.com/google/uuid"
)

// Feedback actions. Only reject and revise consume retry budget; flag leaves
// a note without touching pipeline state.
const (
	FeedbackActionReject = "reject"
	FeedbackActionRevise = "revise"
	FeedbackActionFlag   = "flag"
)

type OperatorFeedback struct {
	ID           uuid.UUID `gorm:"primaryKey;type:VARCHAR(255)"`
	ItemID       uuid.UUID `gorm:"not null;type:VARCHAR(255);index:feedback_item_idx"`
	ItemType     string    `gorm:"not null;type:VARCHAR(100);index:feedback_item_idx"`
	Category     string    `gorm:"not null;type:VARCHAR(100)"`
	Comment      string    `gorm:"type:TEXT"`
	Action       string    `gorm:"not null;type:VARCHAR(20)"`
	SuggestedFix *string   `gorm:"type:TEXT"`
	CreatedAt    time.Time `gorm:"not null;default:now()"`
}

// ItemVersion snapshots an item's content at the moment feedback triggered a
// regeneration. version_number is strictly increasing per item.
type ItemVersion struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	ItemID        uuid.UUID `gorm:"not null;type:VARCHAR(255);uniqueIndex:item_versions_number_key"`
	ItemType      string    `gorm:"not null;type:VARCHAR(100)"`
	VersionNumber int       `gorm:"not null;uniqueIndex:item_versions_number_key"`
	Content       *JSONField[map[string]any] `gorm:"type:jsonb"`
	FeedbackID    *uuid.UUID `gorm:"type:VARCHAR(255)"`
	CreatedAt     time.Time  `gorm:"not null;default:now()"`
}

type ItemVersionList []ItemVersion
