package app

import (
	"time"

	"expenses/internal/core"
)

// EventType names a state change.
type EventType string

const (
	ExpenseCreated  EventType = "expense.created"
	ExpenseDeleted  EventType = "expense.deleted"
	CategoryCreated EventType = "category.created"
	CategoryDeleted EventType = "category.deleted"
	StateLoaded     EventType = "state.loaded"
)

// Event is delivered to observers after the in-memory collections changed.
// Expense and Category are set for the corresponding created events.
type Event struct {
	Type     EventType
	ID       string
	Expense  *core.Expense
	Category *core.Category
	At       time.Time
}

// Observer receives events synchronously, in mutation order.
type Observer func(Event)
