package model

import (
	"time"

	"github.com/google/uuid"
)

// RejectedItem is the terminal record for items that left the pipeline:
// either an operator rejection or an exhausted retry budget.
type RejectedItem struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	ItemID     uuid.UUID `gorm:"not null;type:VARCHAR(255);uniqueIndex:rejected_items_item_key"`
	ItemType   string    `gorm:"not null;type:VARCHAR(100);uniqueIndex:rejected_items_item_key"`
	Reason     string    `gorm:"not null;type:TEXT"`
	FeedbackID *uuid.UUID `gorm:"type:VARCHAR(255)"`
	GateName   *string    `gorm:"type:VARCHAR(100)"`
	RejectedAt time.Time  `gorm:"not null;default:now()"`
}

// Deprecation marks a previously approved item obsolete. Created once by an
// operator, never mutated.
type Deprecation struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	ItemID        uuid.UUID `gorm:"not null;type:VARCHAR(255);uniqueIndex:deprecations_item_key"`
	ItemType      string    `gorm:"not null;type:VARCHAR(100);uniqueIndex:deprecations_item_key"`
	Reason        string    `gorm:"not null;type:TEXT"`
	ReplacementID *uuid.UUID `gorm:"type:VARCHAR(255)"`
	CreatedAt     time.Time  `gorm:"not null;default:now()"`
}
