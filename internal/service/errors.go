package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lingualab/curator/internal/store/model"
)

// ErrIllegalTransition reports an edge outside the fixed state graph. It is
// a programming or data error and is never retried.
type ErrIllegalTransition struct {
	error
}

func NewErrIllegalTransition(from, to model.ItemState) *ErrIllegalTransition {
	return &ErrIllegalTransition{fmt.Errorf("illegal transition %s -> %s", from, to)}
}

// ErrConcurrentModification reports that another transition won the race.
// Transient: the caller re-reads and retries or abandons.
type ErrConcurrentModification struct {
	error
}

func NewErrConcurrentModification(itemID uuid.UUID, itemType string) *ErrConcurrentModification {
	return &ErrConcurrentModification{fmt.Errorf("item %s/%s was modified concurrently", itemType, itemID)}
}

// ErrAlreadyLeased is expected under contention; callers back off.
type ErrAlreadyLeased struct {
	error
}

func NewErrAlreadyLeased(workID string) *ErrAlreadyLeased {
	return &ErrAlreadyLeased{fmt.Errorf("work unit %q is already leased", workID)}
}

// ErrRetryLimitExceeded is terminal: the item moved (or moves now) to a
// permanent rejection record.
type ErrRetryLimitExceeded struct {
	error
}

func NewErrRetryLimitExceeded(itemID uuid.UUID, itemType string, maxRetries int) *ErrRetryLimitExceeded {
	return &ErrRetryLimitExceeded{fmt.Errorf("item %s/%s exceeded %d retries", itemType, itemID, maxRetries)}
}

// ErrAttemptLimitExceeded reports a gate driven past its attempt ceiling.
// This is a configuration/data error, fatal to the triggering operation.
type ErrAttemptLimitExceeded struct {
	error
}

func NewErrAttemptLimitExceeded(gateName string, entityID uuid.UUID, limit int) *ErrAttemptLimitExceeded {
	return &ErrAttemptLimitExceeded{fmt.Errorf("gate %q exceeded attempt ceiling %d for entity %s", gateName, limit, entityID)}
}

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrItemNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "item")
}

func NewErrPipelineNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "pipeline")
}

func NewErrMappingNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "mapping")
}

type ErrItemDeprecated struct {
	error
}

func NewErrItemDeprecated(id uuid.UUID) *ErrItemDeprecated {
	return &ErrItemDeprecated{fmt.Errorf("item %s is already deprecated", id)}
}

type ErrInvalidFeedback struct {
	error
}

func NewErrInvalidFeedback(reason error) *ErrInvalidFeedback {
	return &ErrInvalidFeedback{fmt.Errorf("invalid feedback: %w", reason)}
}

// ErrExternalServiceFailure wraps transformation or similarity collaborator
// outages. The failure is recorded as data on the affected job.
type ErrExternalServiceFailure struct {
	error
}

func NewErrExternalServiceFailure(service string, cause error) *ErrExternalServiceFailure {
	return &ErrExternalServiceFailure{fmt.Errorf("external service %s failed: %w", service, cause)}
}
