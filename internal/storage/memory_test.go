package storage

import (
	"context"
	"testing"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/services"
)

func seedExpenses(t *testing.T, s *MemoryStore) {
	t.Helper()
	ctx := context.Background()
	seed := []core.Expense{
		{ID: "1", UserID: "u1", Title: "Groceries", Amount: core.Money{Cents: 12000}, Category: core.Food, Date: core.NewDate(2025, 1, 3)},
		{ID: "2", UserID: "u1", Title: "Grocery run", Amount: core.Money{Cents: 4000}, Category: core.Food, Date: core.NewDate(2025, 1, 20)},
		{ID: "3", UserID: "u1", Title: "Cinema", Amount: core.Money{Cents: 3000}, Category: core.Entertainment, Date: core.NewDate(2025, 2, 1)},
		{ID: "4", UserID: "u2", Title: "Groceries", Amount: core.Money{Cents: 9000}, Category: core.Food, Date: core.NewDate(2025, 1, 5)},
	}
	for _, e := range seed {
		if err := s.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}
}

func TestListExpensesFilters(t *testing.T) {
	s := NewMemoryStore()
	seedExpenses(t, s)
	ctx := context.Background()

	tests := []struct {
		name    string
		filter  services.ExpenseFilter
		wantIDs []string
	}{
		{"no filter newest first", services.ExpenseFilter{}, []string{"3", "2", "1"}},
		{"period", services.ExpenseFilter{Month: 1, Year: 2025}, []string{"2", "1"}},
		{"search case-insensitive", services.ExpenseFilter{Search: "grocer"}, []string{"2", "1"}},
		{"category", services.ExpenseFilter{Category: "Entertainment"}, []string{"3"}},
		{"category All means no filter", services.ExpenseFilter{Category: "All"}, []string{"3", "2", "1"}},
		{"combined", services.ExpenseFilter{Month: 1, Year: 2025, Search: "run"}, []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListExpenses(ctx, "u1", tt.filter)
			if err != nil {
				t.Fatalf("ListExpenses: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d expenses, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("got[%d].ID = %s, want %s", i, got[i].ID, want)
				}
			}
		})
	}
}

func TestGetBudgetDefaultsToZero(t *testing.T) {
	s := NewMemoryStore()
	b, err := s.GetBudget(context.Background(), "u1", 6, 2025)
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if b.Amount.Cents != 0 || b.Month != 6 || b.Year != 2025 {
		t.Errorf("unset budget = %+v, want zero amount for 6/2025", b)
	}
}

func TestMarkAutomationRunGuard(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	day := time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC)

	ran, err := s.MarkAutomationRun(ctx, "u1", day)
	if err != nil || !ran {
		t.Fatalf("first MarkAutomationRun = %v, %v; want true, nil", ran, err)
	}

	// Same day, later time: declined.
	ran, err = s.MarkAutomationRun(ctx, "u1", day.Add(5*time.Hour))
	if err != nil || ran {
		t.Errorf("same-day MarkAutomationRun = %v, %v; want false, nil", ran, err)
	}

	// Earlier day never un-claims the guard.
	ran, err = s.MarkAutomationRun(ctx, "u1", day.AddDate(0, 0, -1))
	if err != nil || ran {
		t.Errorf("earlier-day MarkAutomationRun = %v, %v; want false, nil", ran, err)
	}

	ran, err = s.MarkAutomationRun(ctx, "u1", day.AddDate(0, 0, 1))
	if err != nil || !ran {
		t.Errorf("next-day MarkAutomationRun = %v, %v; want true, nil", ran, err)
	}
}

func TestRecurringUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	users, err := s.RecurringUsers(ctx)
	if err != nil {
		t.Fatalf("RecurringUsers: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("empty store has %d recurring users", len(users))
	}

	seed := []core.RecurringExpense{
		{ID: "r1", UserID: "bob", Title: "Rent", Amount: core.Money{Cents: 100}, Category: core.Other, Frequency: core.Monthly, StartDate: core.NewDate(2025, 1, 1), NextDate: core.NewDate(2025, 1, 1)},
		{ID: "r2", UserID: "alice", Title: "Gym", Amount: core.Money{Cents: 100}, Category: core.Health, Frequency: core.Weekly, StartDate: core.NewDate(2025, 1, 1), NextDate: core.NewDate(2025, 1, 1)},
		{ID: "r3", UserID: "alice", Title: "Music", Amount: core.Money{Cents: 100}, Category: core.Entertainment, Frequency: core.Monthly, StartDate: core.NewDate(2025, 1, 1), NextDate: core.NewDate(2025, 1, 1)},
	}
	for _, re := range seed {
		if err := s.CreateRecurring(ctx, re); err != nil {
			t.Fatalf("CreateRecurring: %v", err)
		}
	}

	users, err = s.RecurringUsers(ctx)
	if err != nil {
		t.Fatalf("RecurringUsers: %v", err)
	}
	if len(users) != 2 || users[0] != "alice" || users[1] != "bob" {
		t.Errorf("RecurringUsers = %v, want [alice bob]", users)
	}
}

func TestMaterializeRecurringAdvances(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	def := core.RecurringExpense{
		ID: "r1", UserID: "u1", Title: "Rent", Amount: core.Money{Cents: 120000},
		Category: core.Utilities, Frequency: core.Monthly,
		StartDate: core.NewDate(2025, 1, 1), NextDate: core.NewDate(2025, 1, 1),
	}
	if err := s.CreateRecurring(ctx, def); err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}

	expense := core.Expense{ID: "e1", UserID: "u1", Title: "Rent", Amount: def.Amount, Date: def.NextDate}
	next := core.NewDate(2025, 2, 1)
	if err := s.MaterializeRecurring(ctx, "r1", expense, next); err != nil {
		t.Fatalf("MaterializeRecurring: %v", err)
	}

	expenses, _ := s.ListExpenses(ctx, "u1", services.ExpenseFilter{})
	if len(expenses) != 1 {
		t.Fatalf("%d expenses after materialize, want 1", len(expenses))
	}
	defs, _ := s.ListRecurring(ctx, "u1")
	if !defs[0].NextDate.Equal(next.Time) {
		t.Errorf("next date = %s, want %s", defs[0].NextDate.Format("2006-01-02"), next.Format("2006-01-02"))
	}

	if err := s.MaterializeRecurring(ctx, "ghost", expense, next); err != core.ErrNotFound {
		t.Errorf("MaterializeRecurring on missing def = %v, want ErrNotFound", err)
	}
}
