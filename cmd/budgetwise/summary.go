package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budgetwise/internal/analytics"
	"budgetwise/internal/cli"
	"budgetwise/internal/core"
	"budgetwise/internal/export/sheets"
	"budgetwise/internal/services"
)

var (
	userSubject string
	userToken   string
	tokenFile   string

	summaryMonth int
	summaryYear  int
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the month overview: totals, budgets and savings",
	Long: `Print income and expense totals, the expense breakdown, budget
progress and the savings target for one month. Defaults to the current
month.

Example:
  budgetwise summary --month 3 --year 2024`,
	RunE: runSummary,
}

func init() {
	addUserFlags(summaryCmd)
	summaryCmd.Flags().IntVar(&summaryMonth, "month", 0, "month 1-12 (default current)")
	summaryCmd.Flags().IntVar(&summaryYear, "year", 0, "year (default current)")
}

// addUserFlags registers the flags selecting who a one-shot command acts
// for.
func addUserFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&userSubject, "subject", "", "user subject (default STATIC_SUBJECT)")
	cmd.Flags().StringVar(&userToken, "token", "", "bearer token for the remote backend (default STATIC_BEARER_TOKEN, then prompt)")
	cmd.Flags().StringVar(&tokenFile, "token-file", "", "read the bearer token from a file written by 'budgetwise token'")
}

type serviceOption int

const withSheets serviceOption = 1 << iota

// commandService builds a service and the user for a one-shot command.
// The returned cleanup releases the backend.
func commandService(cmd *cobra.Command, opts serviceOption) (*services.Service, services.User, func(), error) {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return nil, services.User{}, nil, err
	}

	svcCfg := services.Config{
		CacheSize:   1,
		CallTimeout: cfg.APITimeout,
		Logger:      logger,
	}
	if opts&withSheets != 0 {
		if !cfg.SheetsEnabled() {
			return nil, services.User{}, nil, errors.New("GOOGLE_SPREADSHEET_ID is not set")
		}
		exporter, err := sheets.New(cmd.Context(), sheetsConfig(cfg))
		if err != nil {
			return nil, services.User{}, nil, err
		}
		svcCfg.Sheets = exporter
	}
	res, err := cli.OpenBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, services.User{}, nil, err
	}
	cleanup := func() {
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
	}

	token := userToken
	if token == "" && tokenFile != "" {
		if token, err = cli.LoadTokenFile(tokenFile); err != nil {
			cleanup()
			return nil, services.User{}, nil, err
		}
	}
	u, err := cli.CommandUser(cfg, res.Provider, userSubject, token)
	if err != nil {
		cleanup()
		return nil, services.User{}, nil, err
	}

	return services.New(svcCfg), u, cleanup, nil
}

func runSummary(cmd *cobra.Command, _ []string) error {
	svc, u, cleanup, err := commandService(cmd, 0)
	if err != nil {
		return err
	}
	defer cleanup()

	p := summaryPeriod(time.Now())
	report, err := svc.PeriodReport(cmd.Context(), u, p)
	if err != nil {
		return err
	}
	return printReport(os.Stdout, p, report)
}

func summaryPeriod(now time.Time) core.Period {
	p := core.CurrentPeriod(now)
	if summaryMonth != 0 {
		p.Month = summaryMonth
	}
	if summaryYear != 0 {
		p.Year = summaryYear
	}
	return p
}

func printReport(out io.Writer, p core.Period, r services.PeriodReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "=== %s ===\n", p.Label())
	fmt.Fprintf(w, "Income\t%s\n", r.Summary.IncomeTotal.Format())
	fmt.Fprintf(w, "Expenses\t%s\n", r.Summary.ExpenseTotal.Format())
	fmt.Fprintf(w, "Balance\t%s\n", r.Summary.Net().Format())

	if rows := analytics.ExpenseBreakdown(r.Summary); len(rows) > 0 {
		fmt.Fprintln(w, "\nExpenses by category")
		for _, row := range rows {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", row.Category, row.Amount.Format(), analytics.ShareLabel(row.Share)+"%")
		}
	}

	fmt.Fprintln(w, "\nBudgets")
	if len(r.Budgets.Rows) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, row := range r.Budgets.Rows {
		status := ""
		if row.Progress.IsOver {
			status = "over by " + row.Progress.Overspent.Format()
		} else if row.Progress.IsNear {
			status = "near limit"
		}
		fmt.Fprintf(w, "  %s\t%s / %s\t%.0f%%\t%s\n",
			row.Record.Category, row.Progress.Spent.Format(), row.Progress.Limit.Format(),
			row.Progress.Percentage, status)
	}

	fmt.Fprintln(w, "\nSavings")
	if len(r.Savings.Rows) == 0 {
		fmt.Fprintln(w, "  (no target)")
	}
	for _, row := range r.Savings.Rows {
		status := row.Progress.Remaining.Format() + " to go"
		if row.Progress.IsMet {
			status = "met"
		}
		fmt.Fprintf(w, "  Target\t%s / %s\t%.0f%%\t%s\n",
			row.Progress.Saved.Format(), row.Progress.Target.Format(),
			row.Progress.Percentage, status)
	}

	return w.Flush()
}
