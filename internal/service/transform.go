package service

import (
	"context"
	"time"
)

// TransformRequest asks the external LLM collaborator to produce or
// regenerate content. For regenerations the operator's feedback travels
// along so the model can correct the flagged problem.
type TransformRequest struct {
	SubjectType  string
	SubjectID    string
	Language     string
	Level        string
	SourceText   string
	Feedback     string
	SuggestedFix string
}

// TransformResult carries the parsed content plus the bookkeeping fields the
// pipeline records on the TransformationJob row.
type TransformResult struct {
	Parsed    map[string]any
	TokensIn  int
	TokensOut int
	CostUsd   float64
	Duration  time.Duration
}

// Transformer is the external transformation collaborator. The pipeline
// core records its bookkeeping and treats failures as data.
type Transformer interface {
	Transform(ctx context.Context, req TransformRequest) (*TransformResult, error)
}
