package mappers

import (
	"github.com/google/uuid"

	"github.com/lingualab/curator/internal/store/model"
)

// FeedbackForm is the operator review surface's input for recordFeedback.
type FeedbackForm struct {
	ItemID       uuid.UUID `validate:"required"`
	ItemType     string    `validate:"required,oneof=utterance vocabulary_entry grammar_note exercise"`
	Category     string    `validate:"required,max=100"`
	Comment      string    `validate:"max=4000"`
	Action       string    `validate:"required,oneof=reject revise flag"`
	SuggestedFix *string
}

func (f FeedbackForm) ToModel() model.OperatorFeedback {
	return model.OperatorFeedback{
		ID:           uuid.New(),
		ItemID:       f.ItemID,
		ItemType:     f.ItemType,
		Category:     f.Category,
		Comment:      f.Comment,
		Action:       f.Action,
		SuggestedFix: f.SuggestedFix,
	}
}

// DeprecationForm marks an approved item obsolete.
type DeprecationForm struct {
	ItemID        uuid.UUID `validate:"required"`
	ItemType      string    `validate:"required,oneof=utterance vocabulary_entry grammar_note exercise"`
	Reason        string    `validate:"required,max=4000"`
	ReplacementID *uuid.UUID
}

func (f DeprecationForm) ToModel() model.Deprecation {
	return model.Deprecation{
		ItemID:        f.ItemID,
		ItemType:      f.ItemType,
		Reason:        f.Reason,
		ReplacementID: f.ReplacementID,
	}
}
