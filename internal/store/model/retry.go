package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RetryStatusPending    = "pending"
	RetryStatusProcessing = "processing"
	RetryStatusCompleted  = "completed"
	RetryStatusFailed     = "failed"
)

// RetryQueueEntry schedules one bounded regeneration attempt for an item
// after operator feedback. retry_count never exceeds max_retries; once the
// budget is spent the item moves to a permanent RejectedItem record.
type RetryQueueEntry struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	ItemID       uuid.UUID `gorm:"not null;type:VARCHAR(255);index:retry_queue_item_idx"`
	ItemType     string    `gorm:"not null;type:VARCHAR(100);index:retry_queue_item_idx"`
	FeedbackID   uuid.UUID `gorm:"not null;type:VARCHAR(255)"`
	Status       string    `gorm:"not null;type:VARCHAR(20);index:retry_queue_status_idx"`
	RetryCount   int       `gorm:"not null"`
	MaxRetries   int       `gorm:"not null;default:3"`
	ScheduledAt  time.Time `gorm:"not null;index:retry_queue_scheduled_idx"`
	ProcessedAt  *time.Time
	ErrorMessage *string   `gorm:"type:TEXT"`
	CreatedAt    time.Time `gorm:"not null;default:now()"`
}

type RetryQueueEntryList []RetryQueueEntry
