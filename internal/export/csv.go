// Package export renders expense data as CSV for download.
package export

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/report"
)

// ExpensesCSV renders a flat expense listing.
func ExpensesCSV(expenses []core.Expense) ([]byte, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Date", "Title", "Amount", "Category", "Description"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, e := range expenses {
		if err := w.Write([]string{
			formatDate(e.Date),
			e.Title,
			e.Amount.String(),
			string(e.Category),
			e.Note,
		}); err != nil {
			return nil, fmt.Errorf("write expense row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// ReportCSV renders a monthly report: a summary header, the category
// breakdown, then the detailed transaction list.
func ReportCSV(r report.MonthlyReport) ([]byte, error) {
	var buf strings.Builder

	monthName := time.Date(r.Year, time.Month(r.Month), 1, 0, 0, 0, 0, time.UTC).Format("January")
	fmt.Fprintf(&buf, "Monthly Financial Report - %s %d\n", monthName, r.Year)
	fmt.Fprintf(&buf, "Total Spending: %s\n", r.TotalAmount)
	fmt.Fprintf(&buf, "Transactions: %d\n\n", r.TransactionCount)

	w := csv.NewWriter(&buf)

	buf.WriteString("CATEGORY BREAKDOWN\n")
	if err := w.Write([]string{"Category", "Amount", "Share (%)"}); err != nil {
		return nil, fmt.Errorf("write breakdown header: %w", err)
	}
	for _, c := range r.CategoryBreakdown {
		if err := w.Write([]string{
			string(c.Category),
			c.Amount.String(),
			fmt.Sprintf("%.1f%%", c.Percentage),
		}); err != nil {
			return nil, fmt.Errorf("write breakdown row: %w", err)
		}
	}
	w.Flush()

	buf.WriteString("\nDETAILED TRANSACTIONS\n")
	if err := w.Write([]string{"Date", "Title", "Category", "Amount", "Note"}); err != nil {
		return nil, fmt.Errorf("write transactions header: %w", err)
	}
	for _, e := range r.Transactions {
		if err := w.Write([]string{
			formatDate(e.Date),
			e.Title,
			string(e.Category),
			e.Amount.String(),
			e.Note,
		}); err != nil {
			return nil, fmt.Errorf("write transaction row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

func formatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}
