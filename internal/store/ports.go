// Package store defines the persistence ports for expenses and categories.
package store

import (
	"context"
	"errors"

	"expenses/internal/core"
)

// Ports for outbound adapters.
type (
	ExpenseStore interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
		// CreateExpense assigns the identifier and returns the stored record.
		CreateExpense(ctx context.Context, in core.NewExpense) (core.Expense, error)
		DeleteExpense(ctx context.Context, id string) error
	}

	CategoryStore interface {
		// ListCategories seeds core.DefaultCategories on first use when the
		// backend supports it.
		ListCategories(ctx context.Context) ([]core.Category, error)
		CreateCategory(ctx context.Context, name string) (core.Category, error)
		DeleteCategory(ctx context.Context, id string) error
	}

	Store interface {
		ExpenseStore
		CategoryStore
		Close() error
	}
)

var (
	// ErrNotFound is returned when a delete targets an unknown record and
	// the backend reports it.
	ErrNotFound = errors.New("not found")
	// ErrTransport wraps network and I/O failures of the backing service.
	ErrTransport = errors.New("transport failure")
)
