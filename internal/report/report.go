// Package report implements the monthly reporting engine: period
// classification, category aggregation, month-over-month comparison and the
// trailing six-month trend. All functions are pure and total over any input
// slice; the caller supplies the full record set and gets derived values
// back without mutation of the input.
package report

import (
	"sort"
	"time"

	"spendwise/internal/core"
)

// TrendWindow is the number of months covered by Trend, newest inclusive.
const TrendWindow = 6

type CategorySummary struct {
	Category   core.Category `json:"category"`
	Amount     core.Money    `json:"amount"`
	Percentage float64       `json:"percentage"`
}

type MonthlyReport struct {
	Month             int               `json:"month"`
	Year              int               `json:"year"`
	TotalAmount       core.Money        `json:"totalAmount"`
	CategoryBreakdown []CategorySummary `json:"categoryBreakdown"`
	TransactionCount  int               `json:"transactionCount"`
	Transactions      []core.Expense    `json:"transactions"`
}

type Trends struct {
	Change           core.Money `json:"change"`
	PercentageChange float64    `json:"percentageChange"`
	IsIncrease       bool       `json:"isIncrease"`
}

type Comparison struct {
	Current  MonthlyReport `json:"current"`
	Previous MonthlyReport `json:"previous"`
	Trends   Trends        `json:"trends"`
}

type TrendPoint struct {
	Month    string     `json:"month"`
	MonthNum int        `json:"monthNum"`
	Year     int        `json:"year"`
	Amount   core.Money `json:"amount"`
}

// InPeriod reports whether the expense's calendar date falls in the given
// month (1-12) and year. Zero dates never match any period.
func InPeriod(e core.Expense, month, year int) bool {
	if e.Date.IsZero() {
		return false
	}
	return int(e.Date.Month()) == month && e.Date.Year() == year
}

// Breakdown groups expenses by category, sums cents per group and computes
// each group's share of total. Groups keep first-seen order for equal
// amounts and are sorted by descending amount. Zero-sum groups are kept: a
// category whose entries legitimately sum to zero still appears with a 0%
// share rather than vanishing from the report.
func Breakdown(expenses []core.Expense, total core.Money) []CategorySummary {
	sums := make(map[core.Category]int64)
	var order []core.Category
	for _, e := range expenses {
		c := core.NormalizeCategory(string(e.Category))
		if _, seen := sums[c]; !seen {
			order = append(order, c)
		}
		sums[c] += e.Amount.Cents
	}

	breakdown := make([]CategorySummary, 0, len(order))
	for _, c := range order {
		amount := core.Money{Cents: sums[c]}
		pct := 0.0
		if total.Cents > 0 {
			pct = amount.Float() / total.Float() * 100
		}
		breakdown = append(breakdown, CategorySummary{Category: c, Amount: amount, Percentage: pct})
	}
	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].Amount.Cents > breakdown[j].Amount.Cents
	})
	return breakdown
}

// Build assembles the full report for one (month, year): period filter,
// total, category breakdown and the matching transactions sorted newest
// first. An empty month yields a zero total and empty slices, never an error.
func Build(expenses []core.Expense, month, year int) MonthlyReport {
	matched := make([]core.Expense, 0)
	var total int64
	for _, e := range expenses {
		if InPeriod(e, month, year) {
			matched = append(matched, e)
			total += e.Amount.Cents
		}
	}

	totalAmount := core.Money{Cents: total}
	breakdown := Breakdown(matched, totalAmount)

	// Stable: records on the same date keep their stored relative order.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date.Time)
	})

	return MonthlyReport{
		Month:             month,
		Year:              year,
		TotalAmount:       totalAmount,
		CategoryBreakdown: breakdown,
		TransactionCount:  len(matched),
		Transactions:      matched,
	}
}

// CalculateTrends computes the delta between two adjacent monthly reports.
// A previous total of zero yields a 0% change, and an unchanged total is
// not an increase.
func CalculateTrends(current, previous MonthlyReport) Trends {
	change := core.Money{Cents: current.TotalAmount.Cents - previous.TotalAmount.Cents}
	pct := 0.0
	if previous.TotalAmount.Cents > 0 {
		pct = change.Float() / previous.TotalAmount.Float() * 100
	}
	return Trends{
		Change:           change,
		PercentageChange: pct,
		IsIncrease:       change.Cents > 0,
	}
}

// Compare builds the reports for (month, year) and the immediately preceding
// calendar month, rolling the year back across January.
func Compare(expenses []core.Expense, month, year int) Comparison {
	current := Build(expenses, month, year)

	prevMonth := month - 1
	prevYear := year
	if prevMonth == 0 {
		prevMonth = 12
		prevYear = year - 1
	}
	previous := Build(expenses, prevMonth, prevYear)

	return Comparison{
		Current:  current,
		Previous: previous,
		Trends:   CalculateTrends(current, previous),
	}
}

// Trend returns the monthly totals for the TrendWindow months ending at and
// including (month, year), oldest first. Months without records contribute a
// zero amount, so the series always has exactly TrendWindow points.
func Trend(expenses []core.Expense, month, year int) []TrendPoint {
	points := make([]TrendPoint, 0, TrendWindow)
	for i := TrendWindow - 1; i >= 0; i-- {
		m := month - i
		y := year
		for m <= 0 {
			m += 12
			y--
		}
		r := Build(expenses, m, y)
		points = append(points, TrendPoint{
			Month:    time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC).Format("Jan"),
			MonthNum: m,
			Year:     y,
			Amount:   r.TotalAmount,
		})
	}
	return points
}
