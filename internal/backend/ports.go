package backend

import (
	"context"

	"budgetwise/internal/api"
	"budgetwise/internal/core"
)

// Ports for the data a signed-in user reads and writes.
type (
	TransactionStore interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context, f api.BudgetFilter) ([]core.BudgetRecord, error)
		CreateBudget(ctx context.Context, b core.BudgetRecord) (core.BudgetRecord, error)
		UpdateBudget(ctx context.Context, b core.BudgetRecord) (core.BudgetRecord, error)
		DeleteBudget(ctx context.Context, id int64) error
	}

	SavingsStore interface {
		ListSavings(ctx context.Context, p *core.Period) ([]core.SavingsRecord, error)
		CreateSavings(ctx context.Context, s core.SavingsRecord) (core.SavingsRecord, error)
		UpdateSavings(ctx context.Context, s core.SavingsRecord) (core.SavingsRecord, error)
		DeleteSavings(ctx context.Context, id int64) error
	}

	// DashboardReader returns the backend's precomputed dashboard.
	DashboardReader interface {
		Dashboard(ctx context.Context) (core.Dashboard, error)
	}

	Advisor interface {
		Advice(ctx context.Context) (string, error)
	}

	// CSVExporter returns the backend's CSV export as opaque bytes.
	CSVExporter interface {
		ExportCSV(ctx context.Context) ([]byte, error)
	}

	UserDirectory interface {
		SyncUser(ctx context.Context, p core.UserProfile) (core.UserProfile, error)
		Me(ctx context.Context) (core.UserProfile, error)
		UpdateProfile(ctx context.Context, p core.UserProfile) (core.UserProfile, error)
	}
)
