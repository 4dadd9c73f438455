package services

import (
	"context"
	"fmt"
	"sync"

	"spendwise/internal/cache"
	"spendwise/internal/core"
	"spendwise/internal/report"
)

// BudgetStatus relates a month's spending to its configured budget. A period
// with no budget set reads as a zero budget with 0% used.
type BudgetStatus struct {
	Budget      core.Money `json:"budget"`
	Spent       core.Money `json:"spent"`
	Remaining   core.Money `json:"remaining"`
	PercentUsed float64    `json:"percentUsed"`
}

// MonthlySummary is the monthly report plus its budget status.
type MonthlySummary struct {
	report.MonthlyReport
	Budget BudgetStatus `json:"budget"`
}

// Caches holds the optional per-view report caches. Any nil cache disables
// caching for that view.
type Caches struct {
	Monthly    cache.Cache[MonthlySummary]
	Comparison cache.Cache[report.Comparison]
	Trend      cache.Cache[[]report.TrendPoint]
}

// ReportService loads a user's full record set and derives report structures
// from it, caching results per (user, period). Invalidation bumps a per-user
// generation baked into the cache key, so stale entries simply age out of
// the underlying cache by TTL.
type ReportService struct {
	store  Store
	caches Caches

	mu   sync.Mutex
	gens map[string]uint64
}

func NewReportService(store Store, caches Caches) *ReportService {
	return &ReportService{store: store, caches: caches, gens: make(map[string]uint64)}
}

// Invalidate makes all cached reports for the user unreachable.
func (s *ReportService) Invalidate(userID string) {
	s.mu.Lock()
	s.gens[userID]++
	s.mu.Unlock()
}

func (s *ReportService) key(userID string, month, year int) string {
	s.mu.Lock()
	gen := s.gens[userID]
	s.mu.Unlock()
	return fmt.Sprintf("%s:g%d:%d-%02d", userID, gen, year, month)
}

// Monthly builds the report for (month, year) with budget status attached.
func (s *ReportService) Monthly(ctx context.Context, userID string, month, year int) (MonthlySummary, error) {
	key := s.key(userID, month, year)
	if s.caches.Monthly != nil {
		if summary, ok := s.caches.Monthly.Get(key); ok {
			return summary, nil
		}
	}

	expenses, err := s.store.ListExpenses(ctx, userID, ExpenseFilter{})
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("load expenses: %w", err)
	}
	budget, err := s.store.GetBudget(ctx, userID, month, year)
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("load budget: %w", err)
	}

	r := report.Build(expenses, month, year)
	summary := MonthlySummary{
		MonthlyReport: r,
		Budget:        budgetStatus(budget.Amount, r.TotalAmount),
	}

	if s.caches.Monthly != nil {
		s.caches.Monthly.Set(key, summary)
	}
	return summary, nil
}

// Comparison builds the current and previous month reports plus their delta.
func (s *ReportService) Comparison(ctx context.Context, userID string, month, year int) (report.Comparison, error) {
	key := s.key(userID, month, year)
	if s.caches.Comparison != nil {
		if cmp, ok := s.caches.Comparison.Get(key); ok {
			return cmp, nil
		}
	}

	expenses, err := s.store.ListExpenses(ctx, userID, ExpenseFilter{})
	if err != nil {
		return report.Comparison{}, fmt.Errorf("load expenses: %w", err)
	}
	cmp := report.Compare(expenses, month, year)

	if s.caches.Comparison != nil {
		s.caches.Comparison.Set(key, cmp)
	}
	return cmp, nil
}

// Trend builds the trailing six-month total series ending at (month, year).
func (s *ReportService) Trend(ctx context.Context, userID string, month, year int) ([]report.TrendPoint, error) {
	key := s.key(userID, month, year)
	if s.caches.Trend != nil {
		if points, ok := s.caches.Trend.Get(key); ok {
			return points, nil
		}
	}

	expenses, err := s.store.ListExpenses(ctx, userID, ExpenseFilter{})
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	points := report.Trend(expenses, month, year)

	if s.caches.Trend != nil {
		s.caches.Trend.Set(key, points)
	}
	return points, nil
}

func budgetStatus(budget, spent core.Money) BudgetStatus {
	status := BudgetStatus{
		Budget:    budget,
		Spent:     spent,
		Remaining: core.Money{Cents: budget.Cents - spent.Cents},
	}
	if budget.Cents > 0 {
		status.PercentUsed = spent.Float() / budget.Float() * 100
	}
	return status
}
