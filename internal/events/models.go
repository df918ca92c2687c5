package events

type ItemTransitionEvent struct {
	ItemID    string `json:"item_id"`
	ItemType  string `json:"item_type"`
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
}

type ItemRejectedEvent struct {
	ItemID   string `json:"item_id"`
	ItemType string `json:"item_type"`
	Reason   string `json:"reason"`
}
