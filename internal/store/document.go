package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/store/model"
)

type Document interface {
	Create(ctx context.Context, document model.Document) (*model.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Document, error)
	CreateChunks(ctx context.Context, chunks []model.DocumentChunk) error
	GetChunk(ctx context.Context, id uuid.UUID) (*model.DocumentChunk, error)
	ListChunks(ctx context.Context, documentID uuid.UUID) (model.DocumentChunkList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type DocumentStore struct {
	db *gorm.DB
}

// Make sure we conform to Document interface
var _ Document = (*DocumentStore)(nil)

func NewDocumentStore(db *gorm.DB) Document {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Create(ctx context.Context, document model.Document) (*model.Document, error) {
	result := s.getDB(ctx).Create(&document)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating document: %w", result.Error)
	}
	return &document, nil
}

func (s *DocumentStore) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var document model.Document
	result := s.getDB(ctx).Preload("Chunks", func(db *gorm.DB) *gorm.DB {
		return db.Order("document_chunks.position")
	}).First(&document, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &document, nil
}

func (s *DocumentStore) CreateChunks(ctx context.Context, chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	result := s.getDB(ctx).Create(&chunks)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("creating document chunks: %w", result.Error)
	}
	return nil
}

func (s *DocumentStore) GetChunk(ctx context.Context, id uuid.UUID) (*model.DocumentChunk, error) {
	var chunk model.DocumentChunk
	result := s.getDB(ctx).First(&chunk, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &chunk, nil
}

func (s *DocumentStore) ListChunks(ctx context.Context, documentID uuid.UUID) (model.DocumentChunkList, error) {
	var chunks model.DocumentChunkList
	result := s.getDB(ctx).
		Where("document_id = ?", documentID).
		Order("position").
		Find(&chunks)
	if result.Error != nil {
		return nil, result.Error
	}
	return chunks, nil
}

func (s *DocumentStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := s.getDB(ctx).Model(&model.Document{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("updating document status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *DocumentStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
