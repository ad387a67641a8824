package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"budgetwise/internal/analytics"
	"budgetwise/internal/core"
	"budgetwise/internal/export"
)

// RecentLimit is the number of transactions listed on the dashboard.
const RecentLimit = 5

type DashboardView struct {
	Period    core.Period
	Month     analytics.Summary
	AllTime   analytics.Summary
	Breakdown []analytics.CategoryTotal
	Income    []analytics.CategoryTotal
	Recent    []core.Transaction
	Budgets   []BudgetRow
	Savings   *SavingsRow
}

// Dashboard joins the backend dashboard with the transaction list. Totals
// and breakdowns are aggregated locally; budgets and the savings target
// come from the backend payload, preferring its spent/progress amounts.
func (s *Service) Dashboard(ctx context.Context, u User) (DashboardView, error) {
	period := core.CurrentPeriod(s.now())

	g, gctx := errgroup.WithContext(ctx)
	var (
		dash core.Dashboard
		txs  []core.Transaction
	)
	g.Go(func() error {
		cctx, cancel := s.call(gctx)
		defer cancel()
		var err error
		dash, err = u.Backend.Dashboard(cctx)
		if err != nil {
			return fmt.Errorf("load dashboard: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		txs, err = s.Transactions(gctx, u)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardView{Period: period}, err
	}

	return BuildDashboard(period, dash, txs), nil
}

func BuildDashboard(period core.Period, dash core.Dashboard, txs []core.Transaction) DashboardView {
	month := analytics.Aggregate(txs, period)
	v := DashboardView{
		Period:    period,
		Month:     month,
		AllTime:   analytics.AggregateAll(txs),
		Breakdown: analytics.ExpenseBreakdown(month),
		Income:    analytics.IncomeBreakdown(month),
	}

	recent := export.SortByDateDesc(txs)
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	v.Recent = recent

	for _, b := range dash.Budgets {
		var p analytics.BudgetProgress
		if b.SpentAmount != nil {
			p = analytics.NewBudgetProgress(*b.SpentAmount, b.LimitAmount)
		} else {
			p = analytics.BudgetProgressFor(b, txs)
		}
		v.Budgets = append(v.Budgets, BudgetRow{Record: b, Progress: p, Style: core.StyleForExpense(b.Category)})
	}

	if sv := dash.MonthlySavings; sv != nil {
		var p analytics.SavingsProgress
		if sv.ProgressAmount != nil {
			p = analytics.NewSavingsProgress(*sv.ProgressAmount, sv.TargetAmount)
		} else {
			p = analytics.SavingsProgressFor(*sv, txs)
		}
		v.Savings = &SavingsRow{Record: *sv, Progress: p, Style: core.MonthStyle(sv.Month)}
	}
	return v
}

// PeriodReport is the month overview printed by the CLI.
type PeriodReport struct {
	Summary analytics.Summary
	Budgets BudgetsView
	Savings SavingsView
}

func (s *Service) PeriodReport(ctx context.Context, u User, p core.Period) (PeriodReport, error) {
	if err := p.Validate(); err != nil {
		return PeriodReport{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	var (
		budgets []core.BudgetRecord
		savings []core.SavingsRecord
		txs     []core.Transaction
	)
	g.Go(func() (err error) {
		budgets, err = s.Budgets(gctx, u)
		return err
	})
	g.Go(func() (err error) {
		savings, err = s.Savings(gctx, u)
		return err
	})
	g.Go(func() (err error) {
		txs, err = s.Transactions(gctx, u)
		return err
	})
	if err := g.Wait(); err != nil {
		return PeriodReport{}, err
	}

	f := RecordFilter{Period: &p}
	return PeriodReport{
		Summary: analytics.Aggregate(txs, p),
		Budgets: BuildBudgetsView(budgets, txs, f),
		Savings: BuildSavingsView(savings, txs, f),
	}, nil
}

func (s *Service) Advice(ctx context.Context, u User) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*s.timeout)
	defer cancel()
	advice, err := u.Backend.Advice(ctx)
	if err != nil {
		return "", fmt.Errorf("get advice: %w", err)
	}
	return advice, nil
}

// ExportCSV returns the backend's CSV report bytes unchanged.
func (s *Service) ExportCSV(ctx context.Context, u User) ([]byte, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	b, err := u.Backend.ExportCSV(ctx)
	if err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}
	return b, nil
}

// ExportSheets writes the user's transactions to the configured sheet.
func (s *Service) ExportSheets(ctx context.Context, u User) (string, error) {
	if s.sheets == nil {
		return "", ErrSheetsDisabled
	}
	txs, err := s.Transactions(ctx, u)
	if err != nil {
		return "", err
	}
	ref, err := s.sheets.Export(ctx, txs)
	if err != nil {
		return "", fmt.Errorf("export sheets: %w", err)
	}
	return ref, nil
}
