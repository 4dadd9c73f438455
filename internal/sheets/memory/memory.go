// Package memory provides an in-memory ExpenseAppender for tests.
package memory

import (
	"context"
	"sync"

	"spendwise/internal/core"
	ports "spendwise/internal/sheets"
)

type Appender struct {
	mu   sync.Mutex
	rows []core.Expense
}

var _ ports.ExpenseAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

func (a *Appender) Append(_ context.Context, e core.Expense) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, e)
	return nil
}

// Rows returns a copy of everything appended so far.
func (a *Appender) Rows() []core.Expense {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.Expense, len(a.rows))
	copy(out, a.rows)
	return out
}
