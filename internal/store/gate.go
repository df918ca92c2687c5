package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/store/model"
)

type Gate interface {
	NextAttempt(ctx context.Context, entityType string, entityID uuid.UUID, gateName string) (int, error)
	CreateResult(ctx context.Context, result model.QualityGateResult) (*model.QualityGateResult, error)
	ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) (model.QualityGateResultList, error)
	ListForGate(ctx context.Context, entityType string, entityID uuid.UUID, gateName string) (model.QualityGateResultList, error)
}

type GateStore struct {
	db *gorm.DB
}

// Make sure we conform to Gate interface
var _ Gate = (*GateStore)(nil)

func NewGateStore(db *gorm.DB) Gate {
	return &GateStore{db: db}
}

// NextAttempt returns 1 + max(attempt_number) for the gate/entity pair. Must
// run inside the same transaction as CreateResult; the unique index on
// (entity_type, entity_id, gate_name, attempt_number) backstops races.
func (s *GateStore) NextAttempt(ctx context.Context, entityType string, entityID uuid.UUID, gateName string) (int, error) {
	var max struct{ N int }
	result := s.getDB(ctx).Model(&model.QualityGateResult{}).
		Select("COALESCE(MAX(attempt_number), 0) AS n").
		Where("entity_type = ? AND entity_id = ? AND gate_name = ?", entityType, entityID, gateName).
		Scan(&max)
	if result.Error != nil {
		return 0, fmt.Errorf("computing next attempt: %w", result.Error)
	}
	return max.N + 1, nil
}

func (s *GateStore) CreateResult(ctx context.Context, gateResult model.QualityGateResult) (*model.QualityGateResult, error) {
	result := s.getDB(ctx).Create(&gateResult)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating gate result: %w", result.Error)
	}
	return &gateResult, nil
}

func (s *GateStore) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) (model.QualityGateResultList, error) {
	var results model.QualityGateResultList
	tx := s.getDB(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("gate_name, attempt_number").
		Find(&results)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return results, nil
}

func (s *GateStore) ListForGate(ctx context.Context, entityType string, entityID uuid.UUID, gateName string) (model.QualityGateResultList, error) {
	var results model.QualityGateResultList
	tx := s.getDB(ctx).
		Where("entity_type = ? AND entity_id = ? AND gate_name = ?", entityType, entityID, gateName).
		Order("attempt_number").
		Find(&results)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return results, nil
}

func (s *GateStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
