// Package sheets defines the ports for the spreadsheet mirror of the
// expense log.
package sheets

import (
	"context"

	"spendwise/internal/core"
)

// ExpenseAppender appends one expense row to the mirror.
type ExpenseAppender interface {
	Append(ctx context.Context, e core.Expense) error
}
