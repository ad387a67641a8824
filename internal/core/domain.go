package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

type (
	TransactionType string

	// Date is a calendar date. It carries no meaningful time of day or zone.
	Date struct {
		time.Time
	}

	// Period identifies one calendar month.
	Period struct {
		Month int
		Year  int
	}

	Transaction struct {
		ID               int64           `json:"id,omitempty"`
		Type             TransactionType `json:"type"`
		Category         string          `json:"category"`
		Amount           Money           `json:"amount"`
		OriginalAmount   *Money          `json:"originalAmount,omitempty"`
		OriginalCurrency string          `json:"originalCurrency,omitempty"`
		ConversionRate   *Money          `json:"conversionRate,omitempty"`
		Date             Date            `json:"date"`
		Description      string          `json:"description,omitempty"`
	}

	// BudgetRecord is a spending limit for one expense category in one period.
	// SpentAmount is filled in by the backend and is informational only.
	BudgetRecord struct {
		ID          int64  `json:"id,omitempty"`
		Category    string `json:"category"`
		LimitAmount Money  `json:"limitAmount"`
		SpentAmount *Money `json:"spentAmount,omitempty"`
		Month       int    `json:"month"`
		Year        int    `json:"year"`
	}

	// SavingsRecord is the savings target for one period.
	SavingsRecord struct {
		ID             int64  `json:"id,omitempty"`
		TargetAmount   Money  `json:"targetAmount"`
		ProgressAmount *Money `json:"progressAmount,omitempty"`
		Month          int    `json:"month"`
		Year           int    `json:"year"`
	}

	// UserProfile is the identity payload exchanged with /users endpoints.
	UserProfile struct {
		ID      int64  `json:"id,omitempty"`
		Subject string `json:"clerkId,omitempty"`
		Email   string `json:"email,omitempty"`
		Name    string `json:"name,omitempty"`
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrDescriptionTooLong = errors.New("description too long")
)

const (
	MinYear           = 2000
	MaxYear           = 2100
	MaxDescriptionLen = 200
)

// NewDate returns the calendar date y-m-d.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "YYYY-MM-DD". A trailing time component
// ("2024-03-05T10:00:00") is ignored so the calendar day never shifts.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) && (s[len(dateLayout)] == 'T' || s[len(dateLayout)] == ' ') {
		s = s[:len(dateLayout)]
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Display renders the date as "05 Mar, 2024".
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02 Jan, 2006")
}

func (d Date) Period() Period {
	return Period{Month: int(d.Month()), Year: d.Year()}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// CurrentPeriod returns the period containing now.
func CurrentPeriod(now time.Time) Period {
	return Period{Month: int(now.Month()), Year: now.Year()}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, p.Month)
	}
	if p.Year < MinYear || p.Year > MaxYear {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidYear, p.Year, MinYear, MaxYear)
	}
	return nil
}

// Contains reports whether d falls in the period.
func (p Period) Contains(d Date) bool {
	return !d.IsZero() && int(d.Month()) == p.Month && d.Year() == p.Year
}

func (p Period) Prev() Period {
	if p.Month == 1 {
		return Period{Month: 12, Year: p.Year - 1}
	}
	return Period{Month: p.Month - 1, Year: p.Year}
}

func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Month: 1, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// Label renders "March 2024".
func (p Period) Label() string {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Sprintf("%d-%d", p.Year, p.Month)
	}
	return fmt.Sprintf("%s %d", time.Month(p.Month).String(), p.Year)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// ParseTransactionType accepts either case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

func (t TransactionType) Label() string {
	switch t {
	case Income:
		return "Income"
	case Expense:
		return "Expense"
	}
	return string(t)
}

func (t Transaction) Period() Period {
	return t.Date.Period()
}

// Validate checks a transaction before it is sent for creation.
func (t Transaction) Validate() error {
	if t.Type != Income && t.Type != Expense {
		return ErrInvalidType
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrInvalidCategory
	}
	switch t.Type {
	case Expense:
		if _, ok := ParseExpenseCategory(t.Category); !ok {
			return fmt.Errorf("%w: %q is not an expense category", ErrInvalidCategory, t.Category)
		}
	case Income:
		if _, ok := ParseIncomeCategory(t.Category); !ok {
			return fmt.Errorf("%w: %q is not an income category", ErrInvalidCategory, t.Category)
		}
	}
	amount := t.Amount
	if t.OriginalAmount != nil {
		amount = *t.OriginalAmount
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if t.OriginalCurrency != "" {
		if _, ok := ParseCurrency(t.OriginalCurrency); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidCurrency, t.OriginalCurrency)
		}
	}
	if len(t.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func (b BudgetRecord) Period() Period {
	return Period{Month: b.Month, Year: b.Year}
}

func (b BudgetRecord) Validate() error {
	if _, ok := ParseExpenseCategory(b.Category); !ok {
		return fmt.Errorf("%w: budgets can only be set for expense categories", ErrInvalidCategory)
	}
	if err := b.Period().Validate(); err != nil {
		return err
	}
	if b.LimitAmount.IsNegative() {
		return fmt.Errorf("%w: limit cannot be negative", ErrInvalidAmount)
	}
	return nil
}

func (s SavingsRecord) Period() Period {
	return Period{Month: s.Month, Year: s.Year}
}

func (s SavingsRecord) Validate() error {
	if err := s.Period().Validate(); err != nil {
		return err
	}
	if s.TargetAmount.IsNegative() {
		return fmt.Errorf("%w: target cannot be negative", ErrInvalidAmount)
	}
	return nil
}

// RecordID, RecordCategory, RecordPeriod and RecordAmount expose the
// period-record shape shared by budgets and savings targets.

func (b BudgetRecord) RecordID() int64         { return b.ID }
func (b BudgetRecord) RecordCategory() string  { return b.Category }
func (b BudgetRecord) RecordPeriod() Period    { return b.Period() }
func (b BudgetRecord) RecordAmount() Money     { return b.LimitAmount }
func (s SavingsRecord) RecordID() int64        { return s.ID }
func (s SavingsRecord) RecordCategory() string { return "" }
func (s SavingsRecord) RecordPeriod() Period   { return s.Period() }
func (s SavingsRecord) RecordAmount() Money    { return s.TargetAmount }
