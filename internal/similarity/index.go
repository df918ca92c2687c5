package similarity

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/internal/store/model"
)

type Match struct {
	ID    uuid.UUID
	Score float64
}

// Index answers near-duplicate queries against previously approved content.
type Index interface {
	SimilarTo(ctx context.Context, text, itemType, language string, threshold float64) ([]Match, error)
}

// StoreIndex scans the approved, non-deprecated corpus of the same type and
// language. A linear scan is acceptable at corpus scale; the trigram sets of
// the query are computed once per call.
type StoreIndex struct {
	store store.Store
}

var _ Index = (*StoreIndex)(nil)

func NewStoreIndex(s store.Store) *StoreIndex {
	return &StoreIndex{store: s}
}

func (idx *StoreIndex) SimilarTo(ctx context.Context, text, itemType, language string, threshold float64) ([]Match, error) {
	items, err := idx.store.Item().List(ctx, store.NewItemQueryFilter().
		ByState(model.ItemStateApproved).
		ByType(itemType).
		ByLanguage(language).
		WithoutDeprecated())
	if err != nil {
		return nil, err
	}

	query := Trigrams(text)
	var matches []Match
	for _, item := range items {
		score := scoreSets(query, Trigrams(item.NormalizedText))
		if score >= threshold {
			matches = append(matches, Match{ID: item.ItemID, Score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, nil
}
