package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lingualab/curator/internal/gates"
	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/internal/store/model"
	"github.com/lingualab/curator/pkg/log"
	"github.com/lingualab/curator/pkg/metrics"
)

// GateRunOutcome is the aggregate result of one evaluation pass.
type GateRunOutcome struct {
	AllPassed bool
	Results   []model.QualityGateResult
}

// GateService runs named checks against a candidate in caller order,
// linearizing attempt numbers per (entityType, entityID, gateName).
type GateService struct {
	store       store.Store
	maxAttempts int
	logger      *log.StructuredLogger
}

func NewGateService(store store.Store, maxAttempts int) *GateService {
	return &GateService{
		store:       store,
		maxAttempts: maxAttempts,
		logger:      log.NewDebugLogger("gate_service"),
	}
}

// Evaluate runs the gates in the given order. A failing blocking gate stops
// the gates after it; failing non-blocking gates keep going so the operator
// gets complete diagnostics. A gate that errors is recorded as failed with
// the error message, not raised. Exceeding the attempt ceiling is fatal to
// the operation: it signals mis-configuration, not a retryable failure.
func (s *GateService) Evaluate(ctx context.Context, candidate gates.Candidate, specs []gates.Spec) (*GateRunOutcome, error) {
	tracer := s.logger.WithContext(ctx).Operation("evaluate_gates").
		WithString("entity_type", candidate.EntityType).
		WithUUID("entity_id", candidate.EntityID).
		WithInt("gates", len(specs)).
		Build()

	outcome := &GateRunOutcome{AllPassed: true}
	for _, spec := range specs {
		result, err := s.runGate(ctx, candidate, spec)
		if err != nil {
			tracer.Error(err).WithString("gate", spec.Name).Log()
			return nil, err
		}

		outcome.Results = append(outcome.Results, *result)
		metrics.IncreaseGateResultsTotalMetric(spec.Name, result.Status)

		if result.Status == model.GateStatusFailed {
			outcome.AllPassed = false
			if spec.Blocking {
				break
			}
		}
	}

	tracer.Success().WithBool("all_passed", outcome.AllPassed).WithInt("results", len(outcome.Results)).Log()
	return outcome, nil
}

// runGate computes the next attempt number and inserts the result in one
// transaction. The unique index on the attempt tuple is the backstop when
// two evaluations of the same entity race past the owning lease.
func (s *GateService) runGate(ctx context.Context, candidate gates.Candidate, spec gates.Spec) (*model.QualityGateResult, error) {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	attempt, err := s.store.Gate().NextAttempt(ctx, candidate.EntityType, candidate.EntityID, spec.Name)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}
	if attempt > s.maxAttempts {
		_, _ = store.Rollback(ctx)
		return nil, NewErrAttemptLimitExceeded(spec.Name, candidate.EntityID, s.maxAttempts)
	}

	started := time.Now()
	checkResult, checkErr := runCheck(ctx, spec, candidate)
	elapsed := time.Since(started)

	record := model.QualityGateResult{
		EntityType:      candidate.EntityType,
		EntityID:        candidate.EntityID,
		GateName:        spec.Name,
		AttemptNumber:   attempt,
		Score:           checkResult.Score,
		ExecutionTimeMs: elapsed.Milliseconds(),
	}
	if checkErr != nil {
		// gate evaluation errors become failed results with diagnostics
		msg := checkErr.Error()
		record.Status = model.GateStatusFailed
		record.ErrorMessage = &msg
	} else if checkResult.Passed {
		record.Status = model.GateStatusPassed
	} else {
		record.Status = model.GateStatusFailed
	}
	if len(checkResult.Detail) > 0 {
		record.Metadata = model.MakeJSONField(checkResult.Detail)
	}

	created, err := s.store.Gate().CreateResult(ctx, record)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// runCheck shields the engine from panicking gates.
func runCheck(ctx context.Context, spec gates.Spec, candidate gates.Candidate) (result gates.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = gates.Result{}
			err = fmt.Errorf("gate %q panicked: %v", spec.Name, r)
		}
	}()
	return spec.Check(ctx, candidate)
}

// ResultsForEntity returns the recorded gate history for operator display.
func (s *GateService) ResultsForEntity(ctx context.Context, entityType string, entityID uuid.UUID) (model.QualityGateResultList, error) {
	return s.store.Gate().ListForEntity(ctx, entityType, entityID)
}
