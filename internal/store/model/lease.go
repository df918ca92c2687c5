package model

import "time"

// WorkLease is an exclusive claim on a named work unit. The primary key on
// work_id makes acquisition exclusive by construction: the second insert for
// the same unit fails with a duplicate key error.
type WorkLease struct {
	WorkID    string    `gorm:"primaryKey;column:work_id;type:VARCHAR(255)"`
	StartedAt time.Time `gorm:"not null;default:now()"`
}
