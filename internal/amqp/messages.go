package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expensetracker/internal/core"
)

type EventType string

const (
	EventExpenseCreated EventType = "created"
	EventExpenseUpdated EventType = "updated"
	EventExpenseDeleted EventType = "deleted"
)

// ExpenseEvent announces a change to one expense. Consumers re-read the
// store; the event carries only what is needed to locate affected months.
type ExpenseEvent struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"userId"`
	ExpenseID string    `json:"expenseId"`
	MonthKey  string    `json:"monthKey"`
	// PreviousMonthKey is set when an update moved the expense to another month.
	PreviousMonthKey string    `json:"previousMonthKey,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewExpenseEvent builds an event for e.
func NewExpenseEvent(t EventType, e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      t,
		UserID:    e.UserID,
		ExpenseID: e.ExpenseID,
		MonthKey:  e.MonthKey,
		Timestamp: time.Now().UTC(),
	}
}

// Months returns the distinct month keys the event touches.
func (m *ExpenseEvent) Months() []string {
	if m.PreviousMonthKey != "" && m.PreviousMonthKey != m.MonthKey {
		return []string{m.PreviousMonthKey, m.MonthKey}
	}
	return []string{m.MonthKey}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and sanity-checks an event.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventExpenseCreated, EventExpenseUpdated, EventExpenseDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.UserID == "" || msg.MonthKey == "" {
		return nil, fmt.Errorf("event missing userId or monthKey")
	}
	return &msg, nil
}
