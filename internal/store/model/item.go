package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ItemState is the lifecycle state of a curation item. States form a fixed
// linear graph; rejection exits the graph into a RejectedItem record instead
// of moving backward.
type ItemState string

const (
	ItemStateDraft     ItemState = "DRAFT"
	ItemStateCandidate ItemState = "CANDIDATE"
	ItemStateValidated ItemState = "VALIDATED"
	ItemStateApproved  ItemState = "APPROVED"
)

// Item types flowing through the pipeline.
const (
	ItemTypeUtterance       = "utterance"
	ItemTypeVocabularyEntry = "vocabulary_entry"
	ItemTypeGrammarNote     = "grammar_note"
	ItemTypeExercise        = "exercise"
)

type CurationItem struct {
	ItemID         uuid.UUID `gorm:"primaryKey;column:item_id;type:VARCHAR(255)"`
	ItemType       string    `gorm:"primaryKey;column:item_type;type:VARCHAR(100)"`
	State          ItemState `gorm:"not null;type:VARCHAR(50);index:curation_items_state_idx"`
	Language       string    `gorm:"not null;type:VARCHAR(35);index:curation_items_lang_idx"`
	Level          string    `gorm:"type:VARCHAR(10)"`
	Content        *JSONField[map[string]any] `gorm:"type:jsonb"`
	NormalizedText string    `gorm:"type:TEXT"`
	CreatedAt      time.Time `gorm:"not null;default:now()"`
	UpdatedAt      *time.Time
}

type CurationItemList []CurationItem

func (i CurationItem) String() string {
	val, _ := json.Marshal(i)
	return string(val)
}

// StateTransitionEvent is the append-only lifecycle log. The item's cached
// state always equals the to_state of its latest event.
type StateTransitionEvent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	ItemID    uuid.UUID `gorm:"not null;type:VARCHAR(255);index:transition_events_item_idx"`
	ItemType  string    `gorm:"not null;type:VARCHAR(100);index:transition_events_item_idx"`
	FromState ItemState `gorm:"not null;type:VARCHAR(50)"`
	ToState   ItemState `gorm:"not null;type:VARCHAR(50)"`
	Metadata  *JSONField[map[string]any] `gorm:"type:jsonb"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

type StateTransitionEventList []StateTransitionEvent
