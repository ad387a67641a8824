// Package analytics derives per-period totals and progress figures from a
// transaction list. Every function here is pure: identical inputs always
// produce identical outputs and nothing is mutated.
package analytics

import (
	"sort"

	"budgetwise/internal/core"
)

// Summary holds the income and expense sums of a period.
type Summary struct {
	Period            core.Period
	IncomeTotal       core.Money
	ExpenseTotal      core.Money
	IncomeByCategory  map[string]core.Money
	ExpenseByCategory map[string]core.Money
}

// Net is income minus expense.
func (s Summary) Net() core.Money {
	return s.IncomeTotal.Sub(s.ExpenseTotal)
}

// Aggregate sums the transactions dated in period p.
//
// Expenses are only counted when their category belongs to the expense
// set; anything else is dropped from both the breakdown and the total.
// Income is counted regardless of category and grouped by the literal
// category string.
func Aggregate(txs []core.Transaction, p core.Period) Summary {
	s := newSummary(p)
	for _, tx := range txs {
		if !p.Contains(tx.Date) {
			continue
		}
		s.add(tx)
	}
	return s
}

// AggregateAll applies the same rules as Aggregate over every transaction
// regardless of date.
func AggregateAll(txs []core.Transaction) Summary {
	s := newSummary(core.Period{})
	for _, tx := range txs {
		s.add(tx)
	}
	return s
}

func newSummary(p core.Period) Summary {
	return Summary{
		Period:            p,
		IncomeByCategory:  make(map[string]core.Money),
		ExpenseByCategory: make(map[string]core.Money),
	}
}

func (s *Summary) add(tx core.Transaction) {
	switch tx.Type {
	case core.Income:
		s.IncomeTotal = s.IncomeTotal.Add(tx.Amount)
		s.IncomeByCategory[tx.Category] = s.IncomeByCategory[tx.Category].Add(tx.Amount)
	case core.Expense:
		if _, ok := core.ParseExpenseCategory(tx.Category); !ok {
			return
		}
		s.ExpenseTotal = s.ExpenseTotal.Add(tx.Amount)
		s.ExpenseByCategory[tx.Category] = s.ExpenseByCategory[tx.Category].Add(tx.Amount)
	}
}

// SpentInPeriod sums EXPENSE transactions of one category in period p.
func SpentInPeriod(txs []core.Transaction, category string, p core.Period) core.Money {
	total := core.Zero()
	for _, tx := range txs {
		if tx.Type == core.Expense && tx.Category == category && p.Contains(tx.Date) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// NetInPeriod is the amount saved in p: income minus expense as computed by
// Aggregate.
func NetInPeriod(txs []core.Transaction, p core.Period) core.Money {
	return Aggregate(txs, p).Net()
}

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category string
	Amount   core.Money
	Share    float64
	Style    core.CategoryStyle
}

// ExpenseBreakdown returns the expense categories of s ordered by amount,
// largest first, with each row's share of the expense total.
func ExpenseBreakdown(s Summary) []CategoryTotal {
	rows := make([]CategoryTotal, 0, len(s.ExpenseByCategory))
	for cat, amount := range s.ExpenseByCategory {
		rows = append(rows, CategoryTotal{
			Category: cat,
			Amount:   amount,
			Share:    amount.Percent(s.ExpenseTotal),
			Style:    core.StyleForExpense(cat),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Amount.Cmp(rows[j].Amount); c != 0 {
			return c > 0
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

// IncomeBreakdown lists every income category in display order, including
// those with no income, followed by any unexpected categories found in s.
func IncomeBreakdown(s Summary) []CategoryTotal {
	rows := make([]CategoryTotal, 0, len(core.IncomeCategories()))
	known := make(map[string]bool)
	for _, c := range core.IncomeCategories() {
		known[string(c)] = true
		rows = append(rows, incomeRow(s, string(c)))
	}
	var extra []string
	for cat := range s.IncomeByCategory {
		if !known[cat] {
			extra = append(extra, cat)
		}
	}
	sort.Strings(extra)
	for _, cat := range extra {
		rows = append(rows, incomeRow(s, cat))
	}
	return rows
}

func incomeRow(s Summary, cat string) CategoryTotal {
	return CategoryTotal{
		Category: cat,
		Amount:   s.IncomeByCategory[cat],
		Share:    IncomeShare(s, cat),
		Style:    core.StyleForIncome(cat),
	}
}

// IncomeShare is the category's percentage of total income, 0 when there
// is no income.
func IncomeShare(s Summary, category string) float64 {
	return s.IncomeByCategory[category].Percent(s.IncomeTotal)
}
