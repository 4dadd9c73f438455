package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"spendwise/internal/core"
)

// ExpenseService orchestrates expense mutations: persistence first, then the
// best-effort event publish and report-cache invalidation. Events and
// invalidation never fail a request once the store write succeeded.
type ExpenseService struct {
	store      ExpenseStore
	events     EventPublisher
	invalidate func(userID string)
}

func NewExpenseService(store ExpenseStore, events EventPublisher, invalidate func(userID string)) *ExpenseService {
	return &ExpenseService{store: store, events: events, invalidate: invalidate}
}

// Create persists a new expense. The category is normalized onto the closed
// set and a missing date defaults to now.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = uuid.NewString()
	e.Category = core.NormalizeCategory(string(e.Category))
	if e.Date.IsZero() {
		e.Date = core.Date{Time: time.Now().UTC()}
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.afterMutation(ctx, e.UserID)

	if s.events != nil {
		if err := s.events.PublishExpenseCreated(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense created event",
				"id", e.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Expense created",
		"id", e.ID,
		"title", e.Title,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)

	return e, nil
}

// Update overwrites an existing expense in place; no history is kept.
func (s *ExpenseService) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Category = core.NormalizeCategory(string(e.Category))
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.afterMutation(ctx, e.UserID)
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.afterMutation(ctx, userID)

	if s.events != nil {
		if err := s.events.PublishExpenseDeleted(ctx, userID, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense deleted event",
				"id", id, "error", err)
		}
	}
	return nil
}

// Clear removes every expense the user owns and returns how many went away.
func (s *ExpenseService) Clear(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.ClearExpenses(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("clear expenses: %w", err)
	}
	s.afterMutation(ctx, userID)
	slog.InfoContext(ctx, "Expenses cleared", "user_id", userID, "deleted", n)
	return n, nil
}

func (s *ExpenseService) List(ctx context.Context, userID string, f ExpenseFilter) ([]core.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (s *ExpenseService) afterMutation(ctx context.Context, userID string) {
	if s.invalidate != nil {
		s.invalidate(userID)
	}
}
