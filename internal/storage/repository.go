// Package storage persists SpendWise data in SQLite. Dates are stored as
// ISO-8601 text: full timestamps for expenses, date-only for recurring
// schedules and the automation marker, so lexicographic comparison matches
// chronological order.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"spendwise/internal/core"
	"spendwise/internal/services"
)

const dayLayout = "2006-01-02"

// SQLiteRepository implements services.Store on a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

var _ services.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, title, amount_cents, date, category, note, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, e.Amount.Cents, dateValue(e.Date), string(e.Category), e.Note, e.ImageURL)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET title = ?, amount_cents = ?, date = ?, category = ?, note = ?, image_url = ?
		WHERE id = ? AND user_id = ?`,
		e.Title, e.Amount.Cents, dateValue(e.Date), string(e.Category), e.Note, e.ImageURL,
		e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) ClearExpenses(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear expenses: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, f services.ExpenseFilter) ([]core.Expense, error) {
	query := `
		SELECT id, user_id, title, amount_cents, date, category, note, image_url
		FROM expenses WHERE user_id = ?`
	args := []any{userID}

	if f.Month != 0 && f.Year != 0 {
		query += ` AND CAST(strftime('%m', date) AS INTEGER) = ? AND CAST(strftime('%Y', date) AS INTEGER) = ?`
		args = append(args, f.Month, f.Year)
	}
	if f.Search != "" {
		query += ` AND title LIKE ? COLLATE NOCASE`
		args = append(args, "%"+f.Search+"%")
	}
	if f.Category != "" && f.Category != "All" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		var (
			e    core.Expense
			date sql.NullString
			cat  string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount.Cents, &date, &cat, &e.Note, &e.ImageURL); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if date.Valid {
			e.Date = core.ParseDate(date.String)
		}
		e.Category = core.Category(cat)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID string, month, year int) (core.Budget, error) {
	b := core.Budget{UserID: userID, Month: month, Year: year}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, amount_cents FROM budgets
		WHERE user_id = ? AND month = ? AND year = ?`,
		userID, month, year).Scan(&b.ID, &b.Amount.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return b, nil
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("query budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, amount_cents, month, year)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, month, year) DO UPDATE SET amount_cents = excluded.amount_cents`,
		uuid.NewString(), b.UserID, b.Amount.Cents, b.Month, b.Year)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return r.GetBudget(ctx, b.UserID, b.Month, b.Year)
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, re core.RecurringExpense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_expenses (id, user_id, title, amount_cents, category, frequency, start_date, next_date, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		re.ID, re.UserID, re.Title, re.Amount.Cents, string(re.Category), string(re.Frequency),
		re.StartDate.Format(dayLayout), re.NextDate.Format(dayLayout), re.Note)
	if err != nil {
		return fmt.Errorf("insert recurring expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context, userID string) ([]core.RecurringExpense, error) {
	return r.queryRecurring(ctx,
		`SELECT id, user_id, title, amount_cents, category, frequency, start_date, next_date, note
		 FROM recurring_expenses WHERE user_id = ? ORDER BY next_date`, userID)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) RecurringUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM recurring_expenses ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query recurring users: %w", err)
	}
	defer rows.Close()

	users := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func (r *SQLiteRepository) DueRecurring(ctx context.Context, userID string, asOf time.Time) ([]core.RecurringExpense, error) {
	return r.queryRecurring(ctx,
		`SELECT id, user_id, title, amount_cents, category, frequency, start_date, next_date, note
		 FROM recurring_expenses WHERE user_id = ? AND next_date <= ? ORDER BY next_date`,
		userID, asOf.Format(dayLayout))
}

// MaterializeRecurring commits the materialized expense and the advanced
// next_date together; a failure of either leaves the definition untouched.
func (r *SQLiteRepository) MaterializeRecurring(ctx context.Context, defID string, e core.Expense, next core.Date) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, title, amount_cents, date, category, note, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, e.Amount.Cents, dateValue(e.Date), string(e.Category), e.Note, e.ImageURL); err != nil {
		return fmt.Errorf("insert materialized expense: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE recurring_expenses SET next_date = ? WHERE id = ?`,
		next.Format(dayLayout), defID)
	if err != nil {
		return fmt.Errorf("advance next date: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	return tx.Commit()
}

// MarkAutomationRun claims the daily automation slot with a conditional
// upsert: the update only applies when the stored day predates the new one,
// so concurrent same-day callers see zero affected rows and back off.
func (r *SQLiteRepository) MarkAutomationRun(ctx context.Context, userID string, day time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, last_automation_run) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_automation_run = excluded.last_automation_run
		WHERE user_settings.last_automation_run IS NULL
		   OR user_settings.last_automation_run < excluded.last_automation_run`,
		userID, day.Format(dayLayout))
	if err != nil {
		return false, fmt.Errorf("mark automation run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) queryRecurring(ctx context.Context, query string, args ...any) ([]core.RecurringExpense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recurring expenses: %w", err)
	}
	defer rows.Close()

	defs := make([]core.RecurringExpense, 0)
	for rows.Next() {
		var (
			re         core.RecurringExpense
			cat, freq  string
			start, nxt string
		)
		if err := rows.Scan(&re.ID, &re.UserID, &re.Title, &re.Amount.Cents, &cat, &freq, &start, &nxt, &re.Note); err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		re.Category = core.Category(cat)
		re.Frequency = core.Frequency(freq)
		re.StartDate = core.ParseDate(start)
		re.NextDate = core.ParseDate(nxt)
		defs = append(defs, re)
	}
	return defs, rows.Err()
}

// dateValue maps a zero date to NULL so that SQLite's date functions skip
// the row instead of matching a bogus period.
func dateValue(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.UTC().Format(time.RFC3339)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
