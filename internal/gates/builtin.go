package gates

import (
	"context"
	"fmt"

	"github.com/thoas/go-funk"
)

const (
	GateContentCompleteness = "content-completeness"
	GateLevelBounds         = "level-bounds"
	GateLengthBounds        = "length-bounds"
)

var cefrLevels = []string{"A0", "A1", "A2", "B1", "B2", "C1", "C2"}

// ContentCompleteness verifies the fields required for the item type are
// present and non-empty. Blocking.
func ContentCompleteness(required ...string) Spec {
	return Spec{
		Name:     GateContentCompleteness,
		Blocking: true,
		Check: func(_ context.Context, candidate Candidate) (Result, error) {
			var missing []string
			for _, field := range required {
				v, ok := candidate.Content[field]
				if !ok || v == "" || v == nil {
					missing = append(missing, field)
				}
			}
			if candidate.NormalizedText == "" {
				missing = append(missing, "text")
			}
			if len(missing) > 0 {
				return failed(map[string]any{"missing_fields": missing}), nil
			}
			return passed(), nil
		},
	}
}

// LevelBounds verifies the candidate carries a known CEFR level. Blocking.
func LevelBounds() Spec {
	return Spec{
		Name:     GateLevelBounds,
		Blocking: true,
		Check: func(_ context.Context, candidate Candidate) (Result, error) {
			if !funk.ContainsString(cefrLevels, candidate.Level) {
				return failed(map[string]any{
					"level":  candidate.Level,
					"reason": fmt.Sprintf("unknown CEFR level %q", candidate.Level),
				}), nil
			}
			return passed(), nil
		},
	}
}

// LengthBounds checks the normalized text length window. Non-blocking:
// an out-of-bounds length is diagnostic, not disqualifying on its own.
func LengthBounds(min, max int) Spec {
	return Spec{
		Name:     GateLengthBounds,
		Blocking: false,
		Check: func(_ context.Context, candidate Candidate) (Result, error) {
			n := len([]rune(candidate.NormalizedText))
			if n < min || n > max {
				return failed(map[string]any{
					"length": n,
					"min":    min,
					"max":    max,
				}), nil
			}
			return passed(), nil
		},
	}
}
