package amqp

import (
	"encoding/json"
	"time"

	"spendwise/internal/core"
)

const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// ExpenseEvent is the message published for each expense mutation. It
// carries the full row so consumers (the sheets mirror) never need a
// database connection of their own.
type ExpenseEvent struct {
	Action      string    `json:"action"`
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Date        string    `json:"date,omitempty"`
	Category    string    `json:"category,omitempty"`
	Note        string    `json:"note,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewCreatedEvent builds the event for a freshly persisted expense.
func NewCreatedEvent(e core.Expense) *ExpenseEvent {
	date := ""
	if !e.Date.IsZero() {
		date = e.Date.Format(time.RFC3339)
	}
	return &ExpenseEvent{
		Action:      ActionCreated,
		ID:          e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		AmountCents: e.Amount.Cents,
		Date:        date,
		Category:    string(e.Category),
		Note:        e.Note,
		Timestamp:   time.Now(),
	}
}

// NewDeletedEvent builds the event for a removed expense.
func NewDeletedEvent(userID, id string) *ExpenseEvent {
	return &ExpenseEvent{
		Action:    ActionDeleted,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
