// Package services orchestrates backend calls for the dashboard: cached
// reads, joined fetches, record reconciliation and event publishing.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetwise/internal/api"
	"budgetwise/internal/backend"
	"budgetwise/internal/cache"
	"budgetwise/internal/core"
	"budgetwise/internal/events"
	applog "budgetwise/internal/log"
	"budgetwise/internal/reconcile"
)

// User is the signed-in user a call acts for.
type User struct {
	Subject string
	Backend backend.Backend
}

// SheetsExporter pushes transactions to a spreadsheet and returns the range
// written.
type SheetsExporter interface {
	Export(ctx context.Context, txs []core.Transaction) (string, error)
}

var ErrSheetsDisabled = errors.New("sheets export is not configured")

type Config struct {
	CacheTTL    time.Duration
	CacheSize   int
	CallTimeout time.Duration
	Events      events.Publisher
	Sheets      SheetsExporter
	Logger      *applog.Logger
	Now         func() time.Time
}

// Service orchestrates backend calls for the dashboard pages. Lists are
// cached per user and every mutation by a user drops that user's entries.
type Service struct {
	txs     *cache.LRUCache[[]core.Transaction]
	budgets *cache.LRUCache[[]core.BudgetRecord]
	savings *cache.LRUCache[[]core.SavingsRecord]

	events  events.Publisher
	sheets  SheetsExporter
	timeout time.Duration
	now     func() time.Time
	audit   *applog.StructuredLogger
}

func New(cfg Config) *Service {
	if cfg.CacheSize < 1 {
		cfg.CacheSize = 500
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 7 * time.Second
	}
	if cfg.Events == nil {
		cfg.Events = events.NopPublisher{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = applog.New(applog.DefaultConfig())
	}
	return &Service{
		txs:     cache.NewLRUCache[[]core.Transaction](cfg.CacheSize, cfg.CacheTTL),
		budgets: cache.NewLRUCache[[]core.BudgetRecord](cfg.CacheSize, cfg.CacheTTL),
		savings: cache.NewLRUCache[[]core.SavingsRecord](cfg.CacheSize, cfg.CacheTTL),
		events:  cfg.Events,
		sheets:  cfg.Sheets,
		timeout: cfg.CallTimeout,
		now:     cfg.Now,
		audit:   applog.NewStructuredLogger(cfg.Logger.WithComponent(applog.ComponentService)),
	}
}

// Caches returns the caches for registration with a cache.Manager.
func (s *Service) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.txs, s.budgets, s.savings}
}

// CacheStats sums hits and misses over all list caches.
func (s *Service) CacheStats() (hits, misses int64) {
	for _, st := range []interface{ Stats() (int64, int64) }{s.txs, s.budgets, s.savings} {
		h, m := st.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Now is the clock used for default periods.
func (s *Service) Now() time.Time { return s.now() }

func (s *Service) SheetsEnabled() bool { return s.sheets != nil }

func userPrefix(u User) string { return u.Subject + "|" }
func transactionsKey(u User) string { return userPrefix(u) + "transactions" }
func budgetsKey(u User) string { return userPrefix(u) + "budgets" }
func savingsKey(u User) string { return userPrefix(u) + "savings" }

// Invalidate drops every cached list of u.
func (s *Service) Invalidate(u User) {
	p := userPrefix(u)
	s.txs.DeletePrefix(p)
	s.budgets.DeletePrefix(p)
	s.savings.DeletePrefix(p)
}

func (s *Service) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) Transactions(ctx context.Context, u User) ([]core.Transaction, error) {
	if v, ok := s.txs.Get(transactionsKey(u)); ok {
		return v, nil
	}
	ctx, cancel := s.call(ctx)
	defer cancel()
	v, err := u.Backend.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	s.txs.Set(transactionsKey(u), v)
	return v, nil
}

func (s *Service) Budgets(ctx context.Context, u User) ([]core.BudgetRecord, error) {
	if v, ok := s.budgets.Get(budgetsKey(u)); ok {
		return v, nil
	}
	return s.freshBudgets(ctx, u)
}

// freshBudgets bypasses the cache; the result replaces the cached list.
func (s *Service) freshBudgets(ctx context.Context, u User) ([]core.BudgetRecord, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	v, err := u.Backend.ListBudgets(ctx, api.BudgetFilter{})
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if err := reconcile.CheckUnique(v); err != nil {
		slog.WarnContext(ctx, "Backend returned duplicate budgets", "subject", u.Subject, "error", err)
	}
	s.budgets.Set(budgetsKey(u), v)
	return v, nil
}

func (s *Service) Savings(ctx context.Context, u User) ([]core.SavingsRecord, error) {
	if v, ok := s.savings.Get(savingsKey(u)); ok {
		return v, nil
	}
	return s.freshSavings(ctx, u)
}

func (s *Service) freshSavings(ctx context.Context, u User) ([]core.SavingsRecord, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	v, err := u.Backend.ListSavings(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	if err := reconcile.CheckUnique(v); err != nil {
		slog.WarnContext(ctx, "Backend returned duplicate savings targets", "subject", u.Subject, "error", err)
	}
	s.savings.Set(savingsKey(u), v)
	return v, nil
}

// withTransactions runs list and the transaction fetch concurrently. If
// either fails the other is cancelled and the error is returned.
func withTransactions[R any](ctx context.Context, s *Service, u User, list func(context.Context, User) ([]R, error)) ([]R, []core.Transaction, error) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		records []R
		txs     []core.Transaction
	)
	g.Go(func() error {
		var err error
		records, err = list(gctx, u)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.Transactions(gctx, u)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return records, txs, nil
}

// publish announces a confirmed write. Failures are logged only; the write
// already succeeded.
func (s *Service) publish(ctx context.Context, ev events.RecordEvent) {
	if err := s.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		slog.WarnContext(ctx, "Failed to publish record event",
			"kind", ev.Kind,
			"action", ev.Action,
			"record_id", ev.RecordID,
			"error", err)
	}
}

// IsValidation reports whether err is an input problem the user can fix,
// raised either locally or by the backend.
func IsValidation(err error) bool {
	for _, target := range []error{
		core.ErrInvalidDate, core.ErrInvalidMonth, core.ErrInvalidYear,
		core.ErrInvalidAmount, core.ErrInvalidType, core.ErrInvalidCategory,
		core.ErrInvalidCurrency, core.ErrDescriptionTooLong, ErrEmptyProfile,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return api.KindOf(err) == api.KindValidation
}
