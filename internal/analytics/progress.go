package analytics

import (
	"strconv"

	"budgetwise/internal/core"
)

// NearLimitPercent is the usage above which a budget is flagged as close
// to its limit.
const NearLimitPercent = 80

// Percentage returns actual/target*100 clamped into [0, 100], or 0 when the
// target is not positive.
func Percentage(actual, target core.Money) float64 {
	if !target.IsPositive() {
		return 0
	}
	p := actual.Percent(target)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// BudgetProgress is the derived state of one budget.
type BudgetProgress struct {
	Spent      core.Money
	Limit      core.Money
	Percentage float64
	// IsOver compares the raw amounts, so it can be true while the
	// percentage is pinned at 100.
	IsOver    bool
	IsNear    bool
	Remaining core.Money
	Overspent core.Money
}

// BudgetProgressFor computes spend against b from the transaction list.
func BudgetProgressFor(b core.BudgetRecord, txs []core.Transaction) BudgetProgress {
	spent := SpentInPeriod(txs, b.Category, b.Period())
	return NewBudgetProgress(spent, b.LimitAmount)
}

// NewBudgetProgress derives progress from an already known spend.
func NewBudgetProgress(spent, limit core.Money) BudgetProgress {
	pct := Percentage(spent, limit)
	return BudgetProgress{
		Spent:      spent,
		Limit:      limit,
		Percentage: pct,
		IsOver:     spent.GreaterThan(limit),
		IsNear:     pct > NearLimitPercent,
		Remaining:  limit.Sub(spent).Max(core.Zero()),
		Overspent:  spent.Sub(limit).Max(core.Zero()),
	}
}

// SavingsProgress is the derived state of one savings target.
type SavingsProgress struct {
	Saved      core.Money
	Target     core.Money
	Percentage float64
	IsMet      bool
	Remaining  core.Money
}

// SavingsProgressFor computes the net saved in s's period.
func SavingsProgressFor(s core.SavingsRecord, txs []core.Transaction) SavingsProgress {
	return NewSavingsProgress(NetInPeriod(txs, s.Period()), s.TargetAmount)
}

// NewSavingsProgress derives progress from an already known net amount.
// A target of zero is always met, even when the month's net is negative.
func NewSavingsProgress(saved, target core.Money) SavingsProgress {
	if !target.IsPositive() {
		return SavingsProgress{Saved: saved, Target: target, IsMet: true, Remaining: core.Zero()}
	}
	return SavingsProgress{
		Saved:      saved,
		Target:     target,
		Percentage: Percentage(saved, target),
		IsMet:      saved.Cmp(target) >= 0,
		Remaining:  target.Sub(saved).Max(core.Zero()),
	}
}

// ShareLabel renders a percentage with no decimals, or "<1" for shares that
// are positive but would otherwise round to zero.
func ShareLabel(p float64) string {
	if p > 0 && p < 1 {
		return "<1"
	}
	return strconv.FormatFloat(p, 'f', 0, 64)
}

// BarWidth converts a percentage to a bar width, keeping small non-zero
// values visible.
func BarWidth(p float64) int {
	w := int(p + 0.5)
	if p > 0 && w < 2 {
		w = 2
	}
	if w > 100 {
		w = 100
	}
	return w
}
