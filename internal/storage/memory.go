package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/report"
	"spendwise/internal/services"
)

// MemoryStore is an in-memory services.Store used by tests and by the
// memory backend for running without a database file.
type MemoryStore struct {
	mu        sync.Mutex
	expenses  []core.Expense
	budgets   []core.Budget
	recurring []core.RecurringExpense
	lastRun   map[string]string // userID -> YYYY-MM-DD
}

var _ services.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lastRun: make(map[string]string)}
}

func (s *MemoryStore) CreateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return nil
}

func (s *MemoryStore) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].ID == e.ID && s.expenses[i].UserID == e.UserID {
			s.expenses[i] = e
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *MemoryStore) DeleteExpense(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].ID == id && s.expenses[i].UserID == userID {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *MemoryStore) ClearExpenses(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.expenses[:0]
	var removed int64
	for _, e := range s.expenses {
		if e.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.expenses = kept
	return removed, nil
}

func (s *MemoryStore) ListExpenses(_ context.Context, userID string, f services.ExpenseFilter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]core.Expense, 0)
	for _, e := range s.expenses {
		if e.UserID != userID {
			continue
		}
		if f.Month != 0 && f.Year != 0 && !report.InPeriod(e, f.Month, f.Year) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Search)) {
			continue
		}
		if f.Category != "" && f.Category != "All" && string(e.Category) != f.Category {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date.Time)
	})
	return matched, nil
}

func (s *MemoryStore) GetBudget(_ context.Context, userID string, month, year int) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.UserID == userID && b.Month == month && b.Year == year {
			return b, nil
		}
	}
	return core.Budget{UserID: userID, Month: month, Year: year}, nil
}

func (s *MemoryStore) UpsertBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].UserID == b.UserID && s.budgets[i].Month == b.Month && s.budgets[i].Year == b.Year {
			s.budgets[i].Amount = b.Amount
			return s.budgets[i], nil
		}
	}
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *MemoryStore) CreateRecurring(_ context.Context, re core.RecurringExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurring = append(s.recurring, re)
	return nil
}

func (s *MemoryStore) ListRecurring(_ context.Context, userID string) ([]core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defs := make([]core.RecurringExpense, 0)
	for _, re := range s.recurring {
		if re.UserID == userID {
			defs = append(defs, re)
		}
	}
	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].NextDate.Before(defs[j].NextDate.Time)
	})
	return defs, nil
}

func (s *MemoryStore) DeleteRecurring(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurring {
		if s.recurring[i].ID == id && s.recurring[i].UserID == userID {
			s.recurring = append(s.recurring[:i], s.recurring[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *MemoryStore) RecurringUsers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	users := make([]string, 0)
	for _, re := range s.recurring {
		if !seen[re.UserID] {
			seen[re.UserID] = true
			users = append(users, re.UserID)
		}
	}
	sort.Strings(users)
	return users, nil
}

func (s *MemoryStore) DueRecurring(_ context.Context, userID string, asOf time.Time) ([]core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := asOf.Format(dayLayout)
	due := make([]core.RecurringExpense, 0)
	for _, re := range s.recurring {
		if re.UserID == userID && re.NextDate.Format(dayLayout) <= day {
			due = append(due, re)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextDate.Before(due[j].NextDate.Time)
	})
	return due, nil
}

func (s *MemoryStore) MaterializeRecurring(_ context.Context, defID string, e core.Expense, next core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurring {
		if s.recurring[i].ID == defID {
			s.expenses = append(s.expenses, e)
			s.recurring[i].NextDate = next
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *MemoryStore) MarkAutomationRun(_ context.Context, userID string, day time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := day.Format(dayLayout)
	if last, ok := s.lastRun[userID]; ok && last >= d {
		return false, nil
	}
	s.lastRun[userID] = d
	return true, nil
}
