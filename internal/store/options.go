package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/store/model"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type ItemQueryFilter BaseQuerier

func NewItemQueryFilter() *ItemQueryFilter {
	return &ItemQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *ItemQueryFilter) ByState(state model.ItemState) *ItemQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("state = ?", state)
	})
	return qf
}

func (qf *ItemQueryFilter) ByType(itemType string) *ItemQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("item_type = ?", itemType)
	})
	return qf
}

func (qf *ItemQueryFilter) ByLanguage(language string) *ItemQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("language = ?", language)
	})
	return qf
}

// WithoutDeprecated excludes items marked obsolete via a deprecation record.
func (qf *ItemQueryFilter) WithoutDeprecated() *ItemQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("NOT EXISTS (SELECT 1 FROM deprecations d WHERE d.item_id = curation_items.item_id AND d.item_type = curation_items.item_type)")
	})
	return qf
}

type RetryQueryFilter BaseQuerier

func NewRetryQueryFilter() *RetryQueryFilter {
	return &RetryQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *RetryQueryFilter) ByStatus(status string) *RetryQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ?", status)
	})
	return qf
}

func (qf *RetryQueryFilter) DueBefore(t time.Time) *RetryQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("scheduled_at <= ?", t)
	})
	return qf
}

type MappingQueryFilter BaseQuerier

func NewMappingQueryFilter() *MappingQueryFilter {
	return &MappingQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *MappingQueryFilter) ByState(state string) *MappingQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("state = ?", state)
	})
	return qf
}

func (qf *MappingQueryFilter) ByChunkID(chunkID string) *MappingQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("chunk_id = ?", chunkID)
	})
	return qf
}
