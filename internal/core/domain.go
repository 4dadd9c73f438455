package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Entertainment Category = "Entertainment"
	Shopping      Category = "Shopping"
	Utilities     Category = "Utilities"
	Health        Category = "Health"
	Other         Category = "Other"
)

type (
	// Frequency is how often a recurring expense fires.
	Frequency string

	// Category is one of the closed set of expense labels.
	Category string

	// Date wraps time.Time with lenient JSON decoding: RFC 3339 or plain
	// YYYY-MM-DD are accepted, anything else decodes to the zero time.
	// Zero dates never match a month bucket but are kept in listings.
	Date struct {
		time.Time
	}

	Expense struct {
		ID       string   `json:"id"`
		UserID   string   `json:"-"`
		Title    string   `json:"title"`
		Amount   Money    `json:"amount"`
		Date     Date     `json:"date"`
		Category Category `json:"category"`
		Note     string   `json:"note,omitempty"`
		ImageURL string   `json:"image_url,omitempty"`
	}

	RecurringExpense struct {
		ID        string    `json:"id"`
		UserID    string    `json:"-"`
		Title     string    `json:"title"`
		Amount    Money     `json:"amount"`
		Category  Category  `json:"category"`
		Frequency Frequency `json:"frequency"`
		StartDate Date      `json:"start_date"`
		NextDate  Date      `json:"next_date"`
		Note      string    `json:"note,omitempty"`
	}

	Budget struct {
		ID     string `json:"id,omitempty"`
		UserID string `json:"-"`
		Amount Money  `json:"amount"`
		Month  int    `json:"month"`
		Year   int    `json:"year"`
	}
)

var (
	ErrEmptyTitle       = errors.New("empty title")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrNotFound         = errors.New("not found")
)

// Categories is the closed set of labels, in display order.
var Categories = []Category{Food, Transport, Entertainment, Shopping, Utilities, Health, Other}

// NormalizeCategory maps raw input onto the closed category set. Empty or
// unknown labels become Other. Matching ignores case and surrounding space.
func NormalizeCategory(raw string) Category {
	raw = strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(raw, string(c)) {
			return c
		}
	}
	return Other
}

func (f Frequency) IsValid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// NewDate builds a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// dateLayouts are tried in order when decoding a date string.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate decodes s leniently. Unparseable input yields the zero time so
// that malformed records survive ingestion instead of failing it.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}
		}
	}
	return Date{}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(time.RFC3339) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}
	*d = ParseDate(s)
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if e.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (re RecurringExpense) Validate() error {
	if strings.TrimSpace(re.Title) == "" {
		return ErrEmptyTitle
	}
	if re.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if !re.Frequency.IsValid() {
		return ErrInvalidFrequency
	}
	if re.StartDate.IsZero() {
		return errors.New("start date is required")
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1970 || b.Year > 9999 {
		return errors.New("invalid year")
	}
	return nil
}
