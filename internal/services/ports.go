package services

import (
	"context"
	"time"

	"spendwise/internal/core"
)

// ExpenseFilter narrows a listing. Zero Month/Year means no period filter;
// an empty or "All" category means no category filter. Search matches a
// case-insensitive substring of the title.
type ExpenseFilter struct {
	Month    int
	Year     int
	Search   string
	Category string
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) error
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error
	ClearExpenses(ctx context.Context, userID string) (int64, error)
	ListExpenses(ctx context.Context, userID string, f ExpenseFilter) ([]core.Expense, error)
}

type BudgetStore interface {
	// GetBudget returns a zero-amount budget when none is set for the period.
	GetBudget(ctx context.Context, userID string, month, year int) (core.Budget, error)
	UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
}

type RecurringStore interface {
	CreateRecurring(ctx context.Context, re core.RecurringExpense) error
	ListRecurring(ctx context.Context, userID string) ([]core.RecurringExpense, error)
	DeleteRecurring(ctx context.Context, userID, id string) error

	// DueRecurring returns the user's definitions with next_date <= asOf.
	DueRecurring(ctx context.Context, userID string, asOf time.Time) ([]core.RecurringExpense, error)

	// RecurringUsers returns every user that owns at least one recurring
	// definition, so a background worker can roll all of them forward.
	RecurringUsers(ctx context.Context) ([]string, error)

	// MaterializeRecurring inserts the expense and advances the definition's
	// next_date in a single transaction; on failure neither is persisted.
	MaterializeRecurring(ctx context.Context, defID string, e core.Expense, next core.Date) error

	// MarkAutomationRun records that automation ran for the user on the given
	// calendar day. It returns false without error when an equal or later run
	// is already recorded; the first writer wins under concurrent calls.
	MarkAutomationRun(ctx context.Context, userID string, day time.Time) (bool, error)
}

// Store is the full persistence surface the services need.
type Store interface {
	ExpenseStore
	BudgetStore
	RecurringStore
}

// EventPublisher emits expense lifecycle events for downstream consumers
// (the sheets sync worker). A nil publisher disables eventing.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
	PublishExpenseDeleted(ctx context.Context, userID, id string) error
}
