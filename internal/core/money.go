// Package core holds the SpendWise domain model.
//
// Money keeps amounts as integer cents so that aggregation never drifts.
// Source data is not trusted: amounts arrive as JSON numbers or as decimal
// strings, and the coercion to cents happens exactly once, here, at the
// ingestion boundary. Everything downstream works on typed cents.
package core

import (
	"math"
	"strconv"
	"strings"
)

// Money is a monetary amount in cents.
type Money struct {
	Cents int64
}

// CoerceCents converts a raw decimal string to cents. Both dot and comma
// decimal separators are accepted, as are comma thousands separators
// ("1,234.56"). Non-numeric, NaN, or infinite input coerces to 0; this is a
// total function and never reports an error.
func CoerceCents(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = normalizeSeparators(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(math.Round(f * 100))
}

// normalizeSeparators rewrites comma usage into a plain dot-decimal string.
// A dot or multiple commas mark any commas as thousands separators; a single
// comma is a decimal comma unless it is followed by exactly three digits.
func normalizeSeparators(s string) string {
	if strings.Contains(s, ".") || strings.Count(s, ",") > 1 {
		return strings.ReplaceAll(s, ",", "")
	}
	i := strings.Index(s, ",")
	if i < 0 {
		return s
	}
	if len(s)-i-1 == 3 {
		return s[:i] + s[i+1:]
	}
	return s[:i] + "." + s[i+1:]
}

// Float returns the decimal value for display and percentage math.
// Use cents for anything that must stay exact.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimal places.
func (m Money) String() string {
	return strconv.FormatFloat(m.Float(), 'f', 2, 64)
}

// MarshalJSON emits a plain decimal number, matching the wire shape the
// UI and exports expect (49.99, not {"Cents":4999}).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a number or a quoted decimal string. Garbage
// decodes to 0 cents rather than failing the record.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		m.Cents = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	m.Cents = CoerceCents(s)
	return nil
}
