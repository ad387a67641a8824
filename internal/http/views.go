package http

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"budgetwise/internal/analytics"
	"budgetwise/internal/auth"
	"budgetwise/internal/core"
	"budgetwise/internal/reconcile"
	"budgetwise/internal/services"
)

var templateFuncs = template.FuncMap{
	"pct":          func(p float64) string { return strconv.FormatFloat(p, 'f', 0, 64) },
	"share":        analytics.ShareLabel,
	"bar":          analytics.BarWidth,
	"expenseStyle": core.StyleForExpense,
	"incomeStyle":  core.StyleForIncome,
	"txStyle":      core.StyleFor,
	"monthStyle":   core.MonthStyle,
	"monthName":    monthName,
	"isIncome":     func(t core.TransactionType) bool { return t == core.Income },
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return strconv.Itoa(m)
	}
	return time.Month(m).String()
}

// page is the layout data every full page carries.
type page struct {
	Title  string
	Active string
	Name   string
	Email  string
	Sheets bool
	// Error replaces the page body with a "could not load" notice.
	Error string
}

func (s *Server) newPage(r *http.Request, title, active string) page {
	p := page{Title: title, Active: active, Sheets: s.svc.SheetsEnabled()}
	if u, ok := auth.UserFrom(r.Context()); ok {
		p.Name = u.Principal.Name
		p.Email = u.Principal.Email
	}
	return p
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

func monthOptions(selected int) []option {
	out := make([]option, 0, 12)
	for m := 1; m <= 12; m++ {
		out = append(out, option{Value: strconv.Itoa(m), Label: monthName(m), Selected: m == selected})
	}
	return out
}

// yearOptions offers two years back and one ahead of now, plus selected if
// it falls outside that range.
func yearOptions(selected int, now time.Time) []option {
	var out []option
	y := now.Year()
	if selected > 0 && selected < y-2 {
		out = append(out, option{Value: strconv.Itoa(selected), Label: strconv.Itoa(selected), Selected: true})
	}
	for year := y - 2; year <= y+1; year++ {
		out = append(out, option{Value: strconv.Itoa(year), Label: strconv.Itoa(year), Selected: year == selected})
	}
	if selected > y+1 {
		out = append(out, option{Value: strconv.Itoa(selected), Label: strconv.Itoa(selected), Selected: true})
	}
	return out
}

func expenseCategoryOptions(selected string) []option {
	out := make([]option, 0, len(core.ExpenseCategories()))
	for _, c := range core.ExpenseCategories() {
		out = append(out, option{Value: string(c), Label: string(c), Selected: string(c) == selected})
	}
	return out
}

func incomeCategoryOptions() []option {
	out := make([]option, 0, len(core.IncomeCategories()))
	for _, c := range core.IncomeCategories() {
		out = append(out, option{Value: string(c), Label: string(c)})
	}
	return out
}

func currencyOptions() []option {
	out := make([]option, 0, len(core.Currencies()))
	for _, c := range core.Currencies() {
		out = append(out, option{Value: string(c), Label: c.Symbol() + " " + string(c), Selected: c == core.DefaultCurrency})
	}
	return out
}

// formView renders a budget or savings form positioned on Key.
type formView struct {
	Kind       string
	Category   string
	Month      int
	Year       int
	ID         int64
	State      string
	Amount     string
	Locked     bool
	Editing    bool
	Editable   bool
	CanSubmit  bool
	Error      string
	Categories []option
	Months     []option
	Years      []option
}

const (
	kindBudgets = "budgets"
	kindSavings = "savings"
)

func newFormView(kind string, key reconcile.Key, f reconcile.Form, now time.Time) formView {
	v := formView{
		Kind:     kind,
		Category: key.Category,
		Month:    key.Period.Month,
		Year:     key.Period.Year,
		ID:       f.ID(),
		State:    f.State().String(),
		Locked:   f.State() == reconcile.Locked,
		Editing:  f.State() == reconcile.Editing,
		Editable: f.Editable(),
		// Client-side validation decides whether the typed amount is
		// usable; the server only renders the button for editable forms.
		CanSubmit: f.Editable(),
		Months:    monthOptions(key.Period.Month),
		Years:     yearOptions(key.Period.Year, now),
	}
	if amt, ok := f.Amount(); ok {
		v.Amount = amt.Input()
	}
	if kind == kindBudgets {
		v.Categories = expenseCategoryOptions(key.Category)
	}
	return v
}

func (v formView) Title() string {
	if v.Kind == kindSavings {
		return "Savings target for " + monthName(v.Month) + " " + strconv.Itoa(v.Year)
	}
	return v.Category + " budget for " + monthName(v.Month) + " " + strconv.Itoa(v.Year)
}

// ModeURL is the form endpoint for this selector in the given mode. Only
// the selector and the mode are sent, so no state carried by the rendered
// form leaks into the next one.
func (v formView) ModeURL(mode reconcile.Mode) string {
	q := url.Values{}
	if v.Category != "" {
		q.Set("category", v.Category)
	}
	q.Set("month", strconv.Itoa(v.Month))
	q.Set("year", strconv.Itoa(v.Year))
	if m := mode.String(); m != "" {
		q.Set("mode", m)
	}
	return "/" + v.Kind + "/form?" + q.Encode()
}

func (v formView) EditURL() string { return v.ModeURL(reconcile.ModeEdit) }

func (v formView) CancelURL() string { return v.ModeURL(reconcile.ModeCancel) }

// recordFilterView echoes the list filter back into the filter controls.
type recordFilterView struct {
	Category   string
	Month      int
	Year       int
	Categories []option
	Months     []option
	Years      []option
}

func newRecordFilterView(f services.RecordFilter, now time.Time) recordFilterView {
	v := recordFilterView{Category: f.Category}
	if f.Period != nil {
		v.Month = f.Period.Month
		v.Year = f.Period.Year
	}
	v.Categories = expenseCategoryOptions(f.Category)
	v.Months = monthOptions(v.Month)
	v.Years = yearOptions(v.Year, now)
	return v
}
