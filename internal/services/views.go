package services

import (
	"sort"

	"budgetwise/internal/analytics"
	"budgetwise/internal/core"
)

type BudgetRow struct {
	Record   core.BudgetRecord
	Progress analytics.BudgetProgress
	Style    core.CategoryStyle
}

type SavingsRow struct {
	Record   core.SavingsRecord
	Progress analytics.SavingsProgress
	Style    core.CategoryStyle
}

// RecordFilter narrows a record list. Zero values match everything.
type RecordFilter struct {
	Category string
	Period   *core.Period
}

func (f RecordFilter) matches(category string, p core.Period) bool {
	if f.Category != "" && f.Category != category {
		return false
	}
	return f.Period == nil || *f.Period == p
}

type BudgetsView struct {
	Filter     RecordFilter
	Rows       []BudgetRow
	TotalLimit core.Money
	TotalSpent core.Money
	OverCount  int
}

type SavingsView struct {
	Filter      RecordFilter
	Rows        []SavingsRow
	TotalTarget core.Money
	TotalSaved  core.Money
	MetCount    int
}

// BuildBudgetsView derives one row per matching budget, newest period first
// and then by category.
func BuildBudgetsView(records []core.BudgetRecord, txs []core.Transaction, f RecordFilter) BudgetsView {
	v := BudgetsView{Filter: f, TotalLimit: core.Zero(), TotalSpent: core.Zero()}
	for _, b := range records {
		if !f.matches(b.Category, b.Period()) {
			continue
		}
		p := analytics.BudgetProgressFor(b, txs)
		v.Rows = append(v.Rows, BudgetRow{Record: b, Progress: p, Style: core.StyleForExpense(b.Category)})
		v.TotalLimit = v.TotalLimit.Add(b.LimitAmount)
		v.TotalSpent = v.TotalSpent.Add(p.Spent)
		if p.IsOver {
			v.OverCount++
		}
	}
	sort.SliceStable(v.Rows, func(i, j int) bool {
		a, b := v.Rows[i].Record, v.Rows[j].Record
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		return a.Category < b.Category
	})
	return v
}

// BuildSavingsView derives one row per matching savings goal, newest first.
func BuildSavingsView(records []core.SavingsRecord, txs []core.Transaction, f RecordFilter) SavingsView {
	v := SavingsView{Filter: f, TotalTarget: core.Zero(), TotalSaved: core.Zero()}
	for _, s := range records {
		if !f.matches("", s.Period()) {
			continue
		}
		p := analytics.SavingsProgressFor(s, txs)
		v.Rows = append(v.Rows, SavingsRow{Record: s, Progress: p, Style: core.MonthStyle(s.Month)})
		v.TotalTarget = v.TotalTarget.Add(s.TargetAmount)
		v.TotalSaved = v.TotalSaved.Add(p.Saved)
		if p.IsMet {
			v.MetCount++
		}
	}
	sort.SliceStable(v.Rows, func(i, j int) bool {
		a, b := v.Rows[i].Record, v.Rows[j].Record
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		return a.Month > b.Month
	})
	return v
}
