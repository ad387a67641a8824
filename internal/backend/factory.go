package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"budgetwise/internal/api"
	"budgetwise/internal/backend/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateProvider implements Factory.CreateProvider
func (f *DefaultFactory) CreateProvider(ctx context.Context, config Config) (*ProviderResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case RemoteBackend:
		return f.createRemoteProvider(config)
	case MemoryBackend:
		return f.createMemoryProvider(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createRemoteProvider(config Config) (*ProviderResult, error) {
	timeout := config.APITimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	// One pooled transport shared by every per-user client.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 20

	provider := ProviderFunc(func(p Principal) Backend {
		return api.New(config.APIBaseURL, p.Tokens, api.WithTransport(transport), api.WithTimeout(timeout))
	})

	f.logger.Info("Initialized remote backend", "base_url", config.APIBaseURL, "timeout", timeout.String())

	return &ProviderResult{
		Provider: provider,
		Cleanup: func() error {
			transport.CloseIdleConnections()
			return nil
		},
	}, nil
}

func (f *DefaultFactory) createMemoryProvider(config Config) (*ProviderResult, error) {
	var (
		store *memory.Store
		err   error
	)
	if config.SeedFile != "" {
		store, err = memory.NewFromFile(config.SeedFile, time.Now)
		if err != nil {
			return nil, fmt.Errorf("failed to load memory seed: %w", err)
		}
	} else {
		store = memory.NewDemo(time.Now)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	return &ProviderResult{
		Provider: ProviderFunc(func(p Principal) Backend {
			return store.ForUser(p.Subject)
		}),
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}
