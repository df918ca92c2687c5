package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusChunked    = "chunked"
	DocumentStatusProcessing = "processing"
	DocumentStatusProcessed  = "processed"
)

// Document is a raw ingested source (textbook, grammar guide, vocabulary
// list). The pipeline core only reads documents and chunks; ingestion
// populates them.
type Document struct {
	ID        uuid.UUID `gorm:"primaryKey;type:VARCHAR(255)"`
	Name      string    `gorm:"not null;type:VARCHAR(255)"`
	Language  string    `gorm:"not null;type:VARCHAR(35)"`
	SourceURI string    `gorm:"type:TEXT"`
	Status    string    `gorm:"not null;type:VARCHAR(20)"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
	Chunks    []DocumentChunk `gorm:"foreignKey:DocumentID;references:ID;constraint:OnDelete:CASCADE;"`
}

type DocumentChunk struct {
	ID         uuid.UUID `gorm:"primaryKey;type:VARCHAR(255)"`
	DocumentID uuid.UUID `gorm:"not null;type:VARCHAR(255);uniqueIndex:document_chunks_position_key"`
	Position   int       `gorm:"not null;uniqueIndex:document_chunks_position_key"`
	Text       string    `gorm:"not null;type:TEXT"`
	Metadata   *JSONField[map[string]any] `gorm:"type:jsonb"`
	CreatedAt  time.Time `gorm:"not null;default:now()"`
}

type DocumentList []Document
type DocumentChunkList []DocumentChunk
