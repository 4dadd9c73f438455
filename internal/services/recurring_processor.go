package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spendwise/internal/core"
)

// RecurringProcessor rolls due recurring definitions forward: each due
// definition materializes exactly one concrete expense dated next_date and
// has its next_date advanced one cycle. The whole pass runs at most once per
// user per calendar day.
type RecurringProcessor struct {
	store RecurringStore
}

// Result reports the outcome of one roll-forward pass.
type Result struct {
	Processed int    `json:"processed"`
	Message   string `json:"message"`
}

func NewRecurringProcessor(store RecurringStore) *RecurringProcessor {
	return &RecurringProcessor{store: store}
}

// Run executes one roll-forward pass for the user as of now. The daily guard
// is claimed up front with an atomic conditional upsert, so concurrent
// invocations on the same day observe the marker and no-op. A persistence
// failure mid-batch stops the pass; definitions processed before the failure
// stay committed and the count reflects them.
func (p *RecurringProcessor) Run(ctx context.Context, userID string, now time.Time) (Result, error) {
	ran, err := p.store.MarkAutomationRun(ctx, userID, now)
	if err != nil {
		return Result{}, fmt.Errorf("mark automation run: %w", err)
	}
	if !ran {
		return Result{Processed: 0, Message: "Already ran today"}, nil
	}

	due, err := p.store.DueRecurring(ctx, userID, now)
	if err != nil {
		return Result{}, fmt.Errorf("load due recurring expenses: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring expenses",
		"user_id", userID,
		"due", len(due),
		"as_of", now.Format("2006-01-02"))

	count := 0
	for _, def := range due {
		note := def.Note
		if note == "" {
			note = fmt.Sprintf("Recurring %s bill", def.Frequency)
		}
		expense := core.Expense{
			ID:       uuid.NewString(),
			UserID:   def.UserID,
			Title:    def.Title,
			Amount:   def.Amount,
			Date:     def.NextDate,
			Category: def.Category,
			Note:     note,
		}
		next := NextOccurrence(def.NextDate, def.Frequency)

		if err := p.store.MaterializeRecurring(ctx, def.ID, expense, next); err != nil {
			return Result{Processed: count},
				fmt.Errorf("materialize recurring expense %s: %w", def.ID, err)
		}

		count++
		slog.InfoContext(ctx, "Materialized recurring expense",
			"recurring_id", def.ID,
			"title", def.Title,
			"amount_cents", def.Amount.Cents,
			"frequency", def.Frequency,
			"next_date", next.Format("2006-01-02"))
	}

	return Result{
		Processed: count,
		Message:   fmt.Sprintf("Successfully processed %d recurring expenses", count),
	}, nil
}

// NextOccurrence advances a due date one cycle. Monthly and yearly steps
// preserve the day of month, clamping to the last valid day of the target
// month (Jan 31 -> Feb 28, Feb 29 -> Feb 28 on non-leap years). The result
// is always strictly after from.
func NextOccurrence(from core.Date, freq core.Frequency) core.Date {
	switch freq {
	case core.Daily:
		return core.Date{Time: from.AddDate(0, 0, 1)}
	case core.Weekly:
		return core.Date{Time: from.AddDate(0, 0, 7)}
	case core.Monthly:
		y, m, d := from.Date()
		m++
		if m > 12 {
			m = 1
			y++
		}
		return core.NewDate(y, int(m), clampDay(y, int(m), d))
	case core.Yearly:
		y, m, d := from.Date()
		y++
		return core.NewDate(y, int(m), clampDay(y, int(m), d))
	}
	return from
}

// clampDay limits day to the last day of (year, month).
func clampDay(year, month, day int) int {
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
