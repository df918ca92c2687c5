package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/lingualab/curator/internal/service/mappers"
	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/internal/store/model"
	"github.com/lingualab/curator/pkg/log"
)

// DeprecationService marks previously approved items obsolete. Deprecations
// are created once by an operator and never mutated; deprecated items drop
// out of the dedup corpus.
type DeprecationService struct {
	store    store.Store
	validate *validator.Validate
	logger   *log.StructuredLogger
}

func NewDeprecationService(store store.Store) *DeprecationService {
	return &DeprecationService{
		store:    store,
		validate: validator.New(),
		logger:   log.NewDebugLogger("deprecation_service"),
	}
}

func (s *DeprecationService) Deprecate(ctx context.Context, form mappers.DeprecationForm) (*model.Deprecation, error) {
	tracer := s.logger.WithContext(ctx).Operation("deprecate").
		WithUUID("item_id", form.ItemID).
		WithString("item_type", form.ItemType).
		Build()

	if err := s.validate.Struct(form); err != nil {
		return nil, NewErrInvalidFeedback(err)
	}

	item, err := s.store.Item().Get(ctx, form.ItemID, form.ItemType)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrItemNotFound(form.ItemID)
		}
		return nil, err
	}
	if item.State != model.ItemStateApproved {
		return nil, NewErrIllegalTransition(item.State, "deprecated")
	}

	created, err := s.store.Deprecation().Create(ctx, form.ToModel())
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrItemDeprecated(form.ItemID)
		}
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().Log()
	return created, nil
}
