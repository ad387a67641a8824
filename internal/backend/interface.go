package backend

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"budgetwise/internal/api"
)

// Backend represents a unified backend interface that provides all necessary operations
type Backend interface {
	TransactionStore
	BudgetStore
	SavingsStore
	DashboardReader
	Advisor
	CSVExporter
	UserDirectory
}

var _ Backend = (*api.Client)(nil)

// Principal is the signed-in user a Backend acts for. Tokens supplies the
// bearer token attached to every request.
type Principal struct {
	Subject string
	Email   string
	Name    string
	Tokens  oauth2.TokenSource
}

// Provider hands out a Backend scoped to one user.
type Provider interface {
	For(p Principal) Backend
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(p Principal) Backend

func (f ProviderFunc) For(p Principal) Backend { return f(p) }

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ProviderResult contains the provider and an optional cleanup function
type ProviderResult struct {
	Provider Provider
	Cleanup  CleanupFunc
}

// Factory creates providers based on configuration
type Factory interface {
	CreateProvider(ctx context.Context, config Config) (*ProviderResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Remote specific
	APIBaseURL string
	APITimeout time.Duration

	// Memory specific
	SeedFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	RemoteBackend BackendType = "remote"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case RemoteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
