package core

import "strings"

type (
	ExpenseCategory string
	IncomeCategory  string
	Currency        string

	// CategoryStyle is the presentation of a category or month: a color
	// and a short icon glyph.
	CategoryStyle struct {
		Color string
		Icon  string
	}
)

const (
	Food          ExpenseCategory = "Food"
	Transport     ExpenseCategory = "Transport"
	Shopping      ExpenseCategory = "Shopping"
	Entertainment ExpenseCategory = "Entertainment"
	Education     ExpenseCategory = "Education"
	Health        ExpenseCategory = "Health"
	Bills         ExpenseCategory = "Bills"
	OtherExpense  ExpenseCategory = "Other"
)

const (
	Salary      IncomeCategory = "Salary"
	Investment  IncomeCategory = "Investment"
	Bonus       IncomeCategory = "Bonus"
	OtherIncome IncomeCategory = "Other"
)

const (
	INR Currency = "INR"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// DefaultCurrency is the currency every stored amount is expressed in.
const DefaultCurrency = INR

// ExpenseCategories lists the closed set of expense categories in display order.
func ExpenseCategories() []ExpenseCategory {
	return []ExpenseCategory{Food, Transport, Shopping, Entertainment, Education, Health, Bills, OtherExpense}
}

// IncomeCategories lists the income categories in display order.
func IncomeCategories() []IncomeCategory {
	return []IncomeCategory{Salary, Investment, Bonus, OtherIncome}
}

// Currencies lists the currencies a transaction may be entered in.
func Currencies() []Currency {
	return []Currency{INR, USD, EUR, GBP}
}

// ParseExpenseCategory matches s exactly against the expense set.
func ParseExpenseCategory(s string) (ExpenseCategory, bool) {
	for _, c := range ExpenseCategories() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

func ParseIncomeCategory(s string) (IncomeCategory, bool) {
	for _, c := range IncomeCategories() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

func ParseCurrency(s string) (Currency, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, c := range Currencies() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Symbol returns the display symbol of the currency.
func (c Currency) Symbol() string {
	switch c {
	case INR:
		return "₹"
	case USD:
		return "$"
	case EUR:
		return "€"
	case GBP:
		return "£"
	}
	return string(c) + " "
}

// FallbackStyle is used for anything outside the known sets.
var FallbackStyle = CategoryStyle{Color: "#6366f1", Icon: "•"}

// Style returns the presentation of an expense category.
func (c ExpenseCategory) Style() CategoryStyle {
	switch c {
	case Food:
		return CategoryStyle{Color: "#10b981", Icon: "🍽"}
	case Transport:
		return CategoryStyle{Color: "#3b82f6", Icon: "🚌"}
	case Shopping:
		return CategoryStyle{Color: "#a855f7", Icon: "🛍"}
	case Entertainment:
		return CategoryStyle{Color: "#f97316", Icon: "🎬"}
	case Education:
		return CategoryStyle{Color: "#ec4899", Icon: "🎓"}
	case Health:
		return CategoryStyle{Color: "#ef4444", Icon: "❤"}
	case Bills:
		return CategoryStyle{Color: "#eab308", Icon: "🧾"}
	case OtherExpense:
		return CategoryStyle{Color: "#71717a", Icon: "🏷"}
	}
	return FallbackStyle
}

func (c IncomeCategory) Style() CategoryStyle {
	switch c {
	case Salary:
		return CategoryStyle{Color: "#10b981", Icon: "💼"}
	case Investment:
		return CategoryStyle{Color: "#3b82f6", Icon: "📈"}
	case Bonus:
		return CategoryStyle{Color: "#a855f7", Icon: "🎁"}
	case OtherIncome:
		return CategoryStyle{Color: "#eab308", Icon: "🪙"}
	}
	return FallbackStyle
}

// StyleForExpense looks up a raw category string; unknown strings get the
// fallback style.
func StyleForExpense(category string) CategoryStyle {
	if c, ok := ParseExpenseCategory(category); ok {
		return c.Style()
	}
	return FallbackStyle
}

func StyleForIncome(category string) CategoryStyle {
	if c, ok := ParseIncomeCategory(category); ok {
		return c.Style()
	}
	return FallbackStyle
}

// StyleFor picks the style by transaction type.
func StyleFor(t TransactionType, category string) CategoryStyle {
	if t == Income {
		return StyleForIncome(category)
	}
	return StyleForExpense(category)
}

var monthStyles = [12]CategoryStyle{
	{Color: "#6366f1", Icon: "❄"},
	{Color: "#10b981", Icon: "💝"},
	{Color: "#3b82f6", Icon: "🌱"},
	{Color: "#f59e0b", Icon: "🌦"},
	{Color: "#8b5cf6", Icon: "🌸"},
	{Color: "#ec4899", Icon: "☀"},
	{Color: "#06b6d4", Icon: "🏖"},
	{Color: "#f97316", Icon: "🌻"},
	{Color: "#14b8a6", Icon: "🍂"},
	{Color: "#d946ef", Icon: "🎃"},
	{Color: "#ef4444", Icon: "🍁"},
	{Color: "#84cc16", Icon: "🎄"},
}

// MonthStyle returns the presentation used for a savings month (1-12).
func MonthStyle(month int) CategoryStyle {
	if month < 1 || month > 12 {
		return FallbackStyle
	}
	return monthStyles[month-1]
}
