package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindTransaction Kind = "transaction"
	KindBudget      Kind = "budget"
	KindSavings     Kind = "savings"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// RecordEvent announces a confirmed write. It carries identifiers only;
// consumers re-read the record from the backend if they need more.
type RecordEvent struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Action    Action    `json:"action"`
	RecordID  int64     `json:"recordId"`
	Subject   string    `json:"subject"`
	Category  string    `json:"category,omitempty"`
	Period    string    `json:"period,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEvent(kind Kind, action Action, subject string, recordID int64) RecordEvent {
	return RecordEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Action:    action,
		RecordID:  recordID,
		Subject:   subject,
		Timestamp: time.Now().UTC(),
	}
}

func (e RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var ev RecordEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
