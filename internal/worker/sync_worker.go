// Package worker consumes expense events and mirrors them to the
// spreadsheet backend.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/sheets"
)

// SyncWorker appends created expenses to the sheet mirror. The mirror is
// append-only: deleted events are acknowledged and skipped, the spreadsheet
// keeps its historical rows.
type SyncWorker struct {
	appender sheets.ExpenseAppender
}

func NewSyncWorker(appender sheets.ExpenseAppender) *SyncWorker {
	return &SyncWorker{appender: appender}
}

// HandleEvent processes one expense event from the queue.
func (w *SyncWorker) HandleEvent(ctx context.Context, msg *amqp.ExpenseEvent) error {
	switch msg.Action {
	case amqp.ActionCreated:
		e := core.Expense{
			ID:       msg.ID,
			UserID:   msg.UserID,
			Title:    msg.Title,
			Amount:   core.Money{Cents: msg.AmountCents},
			Category: core.Category(msg.Category),
			Note:     msg.Note,
		}
		if msg.Date != "" {
			if t, err := time.Parse(time.RFC3339, msg.Date); err == nil {
				e.Date = core.Date{Time: t}
			}
		}
		if err := w.appender.Append(ctx, e); err != nil {
			return fmt.Errorf("append expense %s: %w", msg.ID, err)
		}
		return nil
	case amqp.ActionDeleted:
		slog.InfoContext(ctx, "Skipping deleted event, sheet mirror is append-only",
			"id", msg.ID)
		return nil
	default:
		slog.WarnContext(ctx, "Ignoring unknown event action",
			"action", msg.Action, "id", msg.ID)
		return nil
	}
}
