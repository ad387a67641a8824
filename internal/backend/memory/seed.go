package memory

import (
	"time"

	"budgetwise/internal/core"
)

// demoSeed builds a month of sample activity ending at now, plus a
// budget set and savings target for the current and previous month.
func demoSeed(now time.Time) *Seed {
	cur := core.CurrentPeriod(now)
	prev := cur.Prev()
	day := func(p core.Period, d int) core.Date {
		last := time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
		if d > last {
			d = last
		}
		if p == cur && d > now.Day() {
			d = now.Day()
		}
		return core.NewDate(p.Year, p.Month, d)
	}
	tx := func(t core.TransactionType, cat string, amount int64, p core.Period, d int, desc string) core.Transaction {
		return core.Transaction{
			Type:             t,
			Category:         cat,
			Amount:           core.MoneyFromInt(amount),
			OriginalCurrency: string(core.INR),
			Date:             day(p, d),
			Description:      desc,
		}
	}

	seed := &Seed{}
	for _, p := range []core.Period{prev, cur} {
		seed.Transactions = append(seed.Transactions,
			tx(core.Income, "Salary", 85000, p, 1, "Monthly salary"),
			tx(core.Expense, "Bills", 18000, p, 2, "Rent"),
			tx(core.Expense, "Food", 2400, p, 4, "Groceries"),
			tx(core.Expense, "Transport", 1200, p, 6, "Metro card"),
			tx(core.Expense, "Food", 1850, p, 11, "Dinner with friends"),
			tx(core.Expense, "Entertainment", 799, p, 14, "Streaming subscription"),
			tx(core.Expense, "Shopping", 3500, p, 18, "Running shoes"),
			tx(core.Income, "Investment", 4200, p, 20, "Mutual fund dividend"),
			tx(core.Expense, "Health", 650, p, 22, "Pharmacy"),
			tx(core.Expense, "Food", 1600, p, 25, "Groceries"),
		)
		seed.Budgets = append(seed.Budgets,
			core.BudgetRecord{Category: "Food", LimitAmount: core.MoneyFromInt(6000), Month: p.Month, Year: p.Year},
			core.BudgetRecord{Category: "Shopping", LimitAmount: core.MoneyFromInt(4000), Month: p.Month, Year: p.Year},
			core.BudgetRecord{Category: "Entertainment", LimitAmount: core.MoneyFromInt(1000), Month: p.Month, Year: p.Year},
		)
		seed.Savings = append(seed.Savings,
			core.SavingsRecord{TargetAmount: core.MoneyFromInt(40000), Month: p.Month, Year: p.Year},
		)
	}
	return seed
}
