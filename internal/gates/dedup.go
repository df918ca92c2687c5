package gates

import (
	"context"

	"github.com/lingualab/curator/internal/similarity"
)

const GateDuplicateDetection = "duplicate-detection"

// DuplicateDetection fails when the candidate's trigram similarity to any
// approved item of the same type and language reaches the threshold. The
// failure detail carries the best match's id so the operator can compare.
// Blocking.
func DuplicateDetection(index similarity.Index, threshold float64) Spec {
	return Spec{
		Name:     GateDuplicateDetection,
		Blocking: true,
		Check: func(ctx context.Context, candidate Candidate) (Result, error) {
			matches, err := index.SimilarTo(ctx, candidate.NormalizedText, candidate.EntityType, candidate.Language, threshold)
			if err != nil {
				return Result{}, err
			}
			if len(matches) == 0 {
				return passed(), nil
			}
			best := matches[0]
			score := best.Score
			return Result{
				Passed: false,
				Score:  &score,
				Detail: map[string]any{
					"duplicate_of": best.ID.String(),
					"similarity":   best.Score,
					"threshold":    threshold,
				},
			}, nil
		},
	}
}
