// Package gates defines the named quality checks applied to candidate
// content before operator review. A gate is a deterministic function of the
// candidate's normalized content; the engine in internal/service runs gates
// in caller order and records every attempt.
package gates

import (
	"context"

	"github.com/google/uuid"
)

// Candidate is the view of an entity a gate evaluates.
type Candidate struct {
	EntityType     string
	EntityID       uuid.UUID
	Language       string
	Level          string
	NormalizedText string
	Content        map[string]any
}

// Result of a single gate run. Detail carries structured failure context
// shown to the operator (e.g. the duplicate's id).
type Result struct {
	Passed bool
	Score  *float64
	Detail map[string]any
}

// CheckFunc runs one gate. Errors are recorded as failed results with
// diagnostic detail, never propagated as pipeline crashes.
type CheckFunc func(ctx context.Context, candidate Candidate) (Result, error)

// Spec names a gate and marks whether a failure blocks the gates after it.
// Non-blocking gates always run so the operator gets complete diagnostics.
type Spec struct {
	Name     string
	Blocking bool
	Check    CheckFunc
}

func passed() Result {
	return Result{Passed: true}
}

func failed(detail map[string]any) Result {
	return Result{Passed: false, Detail: detail}
}
