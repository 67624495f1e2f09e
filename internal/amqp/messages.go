package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event kinds carried on the wire.
const (
	EventExpenseRecorded = "expense_recorded"
	EventExpenseRemoved  = "expense_removed"
)

// LedgerEvent is a lightweight notification that a project's ledger changed.
// It carries identifiers and the value delta; consumers fetch current state
// from the database before acting.
type LedgerEvent struct {
	Kind       string    `json:"kind"`
	ProjectID  int64     `json:"project_id"`
	ExpenseID  int64     `json:"expense_id"`
	ValueCents int64     `json:"value_cents"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewExpenseRecorded creates an event for a freshly recorded expense.
func NewExpenseRecorded(projectID, expenseID, valueCents int64) *LedgerEvent {
	return &LedgerEvent{
		Kind:       EventExpenseRecorded,
		ProjectID:  projectID,
		ExpenseID:  expenseID,
		ValueCents: valueCents,
		Timestamp:  time.Now(),
	}
}

// NewExpenseRemoved creates an event for a soft-deleted expense.
func NewExpenseRemoved(projectID, expenseID, valueCents int64) *LedgerEvent {
	return &LedgerEvent{
		Kind:       EventExpenseRemoved,
		ProjectID:  projectID,
		ExpenseID:  expenseID,
		ValueCents: valueCents,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON parses an event from JSON bytes.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
