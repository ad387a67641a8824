// Package memory is an in-process stand-in for the BudgetWise backend. It
// keeps per-user data in memory and reproduces the backend's upsert,
// filtering and derived-amount rules. It serves demo mode and tests.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"budgetwise/internal/analytics"
	"budgetwise/internal/api"
	"budgetwise/internal/core"
	"budgetwise/internal/export"
)

// Store holds every user's data.
type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	nextID int64
	users  map[string]*userData
	rates  map[core.Currency]core.Money
	seed   *Seed
}

type userData struct {
	profile core.UserProfile
	txs     []core.Transaction
	budgets []core.BudgetRecord
	savings []core.SavingsRecord
}

// Seed is the JSON layout of a seed file. Records are loaded for every
// user that signs in.
type Seed struct {
	Transactions []core.Transaction   `json:"transactions"`
	Budgets      []core.BudgetRecord  `json:"budgets"`
	Savings      []core.SavingsRecord `json:"savings"`
}

// New returns an empty store. now drives the dashboard's "current month".
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:   now,
		users: make(map[string]*userData),
		// Fixed demo rates; the real backend looks them up.
		rates: map[core.Currency]core.Money{
			core.INR: core.MoneyFromInt(1),
			core.USD: mustAmount("83.12"),
			core.EUR: mustAmount("90.45"),
			core.GBP: mustAmount("105.30"),
		},
	}
}

// NewFromFile loads a JSON seed.
func NewFromFile(path string, now func() time.Time) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	s := New(now)
	s.seed = &seed
	return s, nil
}

// NewDemo returns a store whose users start with a month of sample data.
func NewDemo(now func() time.Time) *Store {
	s := New(now)
	s.seed = demoSeed(s.now())
	return s
}

// ForUser returns a view of the store scoped to one subject.
func (s *Store) ForUser(subject string) *UserStore {
	return &UserStore{store: s, subject: subject}
}

func (s *Store) user(subject string) *userData {
	u, ok := s.users[subject]
	if ok {
		return u
	}
	u = &userData{profile: core.UserProfile{Subject: subject}}
	if s.seed != nil {
		for _, tx := range s.seed.Transactions {
			tx.ID = s.id()
			u.txs = append(u.txs, tx)
		}
		for _, b := range s.seed.Budgets {
			b.ID = s.id()
			u.budgets = append(u.budgets, b)
		}
		for _, sv := range s.seed.Savings {
			sv.ID = s.id()
			u.savings = append(u.savings, sv)
		}
	}
	s.users[subject] = u
	return u
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func badRequest(path, msg string) error {
	return &api.StatusError{StatusCode: http.StatusBadRequest, Method: "memory", Path: path, Message: msg}
}

func notFound(path, msg string) error {
	return &api.StatusError{StatusCode: http.StatusNotFound, Method: "memory", Path: path, Message: msg}
}

// UserStore implements the backend ports for one user.
type UserStore struct {
	store   *Store
	subject string
}

func (u *UserStore) lock() *userData {
	u.store.mu.Lock()
	return u.store.user(u.subject)
}

func (u *UserStore) unlock() { u.store.mu.Unlock() }

func (u *UserStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := u.lock()
	defer u.unlock()
	return export.SortByDateDesc(d.txs), nil
}

// CreateTransaction converts a foreign original amount at the store's
// fixed rate, as the real backend does with live rates.
func (u *UserStore) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return core.Transaction{}, err
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, badRequest("/transactions", err.Error())
	}
	d := u.lock()
	defer u.unlock()

	cur := core.DefaultCurrency
	if tx.OriginalCurrency != "" {
		cur, _ = core.ParseCurrency(tx.OriginalCurrency)
	}
	if tx.OriginalAmount == nil {
		amt := tx.Amount
		tx.OriginalAmount = &amt
	}
	rate := u.store.rates[cur]
	tx.OriginalCurrency = string(cur)
	tx.ConversionRate = &rate
	tx.Amount = core.NewMoney(tx.OriginalAmount.Decimal().Mul(rate.Decimal()).Round(2))
	tx.ID = u.store.id()
	d.txs = append(d.txs, tx)
	return tx, nil
}

func (u *UserStore) DeleteTransaction(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := u.lock()
	defer u.unlock()
	for i, tx := range d.txs {
		if tx.ID == id {
			d.txs = append(d.txs[:i:i], d.txs[i+1:]...)
			return nil
		}
	}
	return notFound("/transactions", "Transaction not found")
}

func (u *UserStore) ListBudgets(ctx context.Context, f api.BudgetFilter) ([]core.BudgetRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := u.lock()
	defer u.unlock()
	var out []core.BudgetRecord
	for _, b := range d.budgets {
		if f.Category != "" && b.Category != f.Category {
			continue
		}
		if f.Period != nil && b.Period() != *f.Period {
			continue
		}
		out = append(out, withSpent(b, d.txs))
	}
	return out, nil
}

// CreateBudget upserts by (category, month, year).
func (u *UserStore) CreateBudget(ctx context.Context, b core.BudgetRecord) (core.BudgetRecord, error) {
	if err := ctx.Err(); err != nil {
		return core.BudgetRecord{}, err
	}
	if err := b.Validate(); err != nil {
		return core.BudgetRecord{}, badRequest("/budgets", err.Error())
	}
	d := u.lock()
	defer u.unlock()
	for i, existing := range d.budgets {
		if existing.Category == b.Category && existing.Period() == b.Period() {
			d.budgets[i].LimitAmount = b.LimitAmount
			return withSpent(d.budgets[i], d.txs), nil
		}
	}
	b.ID = u.store.id()
	b.SpentAmount = nil
	d.budgets = append(d.budgets, b)
	return withSpent(b, d.txs), nil
}

// UpdateBudget updates by id when one is given, otherwise behaves like
// CreateBudget.
func (u *UserStore) UpdateBudget(ctx context.Context, b core.BudgetRecord) (core.BudgetRecord, error) {
	if b.ID == 0 {
		return u.CreateBudget(ctx, b)
	}
	if err := ctx.Err(); err != nil {
		return core.BudgetRecord{}, err
	}
	if err := b.Validate(); err != nil {
		return core.BudgetRecord{}, badRequest("/budgets", err.Error())
	}
	d := u.lock()
	defer u.unlock()
	for i, existing := range d.budgets {
		if existing.ID == b.ID {
			d.budgets[i].LimitAmount = b.LimitAmount
			return withSpent(d.budgets[i], d.txs), nil
		}
	}
	return core.BudgetRecord{}, notFound("/budgets", "Budget not found")
}

func (u *UserStore) DeleteBudget(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := u.lock()
	defer u.unlock()
	for i, b := range d.budgets {
		if b.ID == id {
			d.budgets = append(d.budgets[:i:i], d.budgets[i+1:]...)
			return nil
		}
	}
	return notFound("/budgets", "Budget not found")
}

func (u *UserStore) ListSavings(ctx context.Context, p *core.Period) ([]core.SavingsRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := u.lock()
	defer u.unlock()
	var out []core.SavingsRecord
	for _, s := range d.savings {
		if p != nil && s.Period() != *p {
			continue
		}
		out = append(out, withProgress(s, d.txs))
	}
	return out, nil
}

// CreateSavings upserts by (month, year).
func (u *UserStore) CreateSavings(ctx context.Context, s core.SavingsRecord) (core.SavingsRecord, error) {
	if err := ctx.Err(); err != nil {
		return core.SavingsRecord{}, err
	}
	if err := s.Validate(); err != nil {
		return core.SavingsRecord{}, badRequest("/savings", err.Error())
	}
	d := u.lock()
	defer u.unlock()
	for i, existing := range d.savings {
		if existing.Period() == s.Period() {
			d.savings[i].TargetAmount = s.TargetAmount
			return withProgress(d.savings[i], d.txs), nil
		}
	}
	s.ID = u.store.id()
	s.ProgressAmount = nil
	d.savings = append(d.savings, s)
	return withProgress(s, d.txs), nil
}

func (u *UserStore) UpdateSavings(ctx context.Context, s core.SavingsRecord) (core.SavingsRecord, error) {
	if s.ID == 0 {
		return u.CreateSavings(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return core.SavingsRecord{}, err
	}
	if err := s.Validate(); err != nil {
		return core.SavingsRecord{}, badRequest("/savings", err.Error())
	}
	d := u.lock()
	defer u.unlock()
	for i, existing := range d.savings {
		if existing.ID == s.ID {
			d.savings[i].TargetAmount = s.TargetAmount
			return withProgress(d.savings[i], d.txs), nil
		}
	}
	return core.SavingsRecord{}, notFound("/savings", "Savings record not found")
}

func (u *UserStore) DeleteSavings(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := u.lock()
	defer u.unlock()
	for i, s := range d.savings {
		if s.ID == id {
			d.savings = append(d.savings[:i:i], d.savings[i+1:]...)
			return nil
		}
	}
	return notFound("/savings", "Savings record not found")
}

func (u *UserStore) Dashboard(ctx context.Context) (core.Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return core.Dashboard{}, err
	}
	period := core.CurrentPeriod(u.store.now())
	d := u.lock()
	defer u.unlock()

	all := analytics.AggregateAll(d.txs)
	month := analytics.Aggregate(d.txs, period)
	dash := core.Dashboard{
		TotalIncome:              all.IncomeTotal,
		TotalExpense:             all.ExpenseTotal,
		Balance:                  all.Net(),
		ExpenseByCategory:        all.ExpenseByCategory,
		MonthlyIncome:            month.IncomeTotal,
		MonthlyExpense:           month.ExpenseTotal,
		MonthlyBalance:           month.Net(),
		MonthlyExpenseByCategory: month.ExpenseByCategory,
		Budgets:                  []core.BudgetRecord{},
	}
	for _, b := range d.budgets {
		if b.Period() == period {
			dash.Budgets = append(dash.Budgets, withSpent(b, d.txs))
		}
	}
	for _, s := range d.savings {
		if s.Period() == period {
			sv := withProgress(s, d.txs)
			dash.MonthlySavings = &sv
			break
		}
	}
	return dash, nil
}

// Advice produces short rule-based guidance from the dashboard.
func (u *UserStore) Advice(ctx context.Context) (string, error) {
	dash, err := u.Dashboard(ctx)
	if err != nil {
		return "", err
	}
	var tips []string
	budgets := append([]core.BudgetRecord(nil), dash.Budgets...)
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].Category < budgets[j].Category })
	for _, b := range budgets {
		spent := core.Zero()
		if b.SpentAmount != nil {
			spent = *b.SpentAmount
		}
		p := analytics.NewBudgetProgress(spent, b.LimitAmount)
		switch {
		case p.IsOver:
			tips = append(tips, fmt.Sprintf("You are over your %s budget by %s. Pause non-essential %s spending for the rest of the month.",
				b.Category, p.Overspent.Format(), strings.ToLower(b.Category)))
		case p.IsNear:
			tips = append(tips, fmt.Sprintf("%s is at %s%% of its limit with %s left.", b.Category, analytics.ShareLabel(p.Percentage), p.Remaining.Format()))
		}
	}
	if s := dash.MonthlySavings; s != nil {
		saved := core.Zero()
		if s.ProgressAmount != nil {
			saved = *s.ProgressAmount
		}
		p := analytics.NewSavingsProgress(saved, s.TargetAmount)
		if p.IsMet {
			tips = append(tips, fmt.Sprintf("You have reached this month's savings target of %s.", s.TargetAmount.Format()))
		} else {
			tips = append(tips, fmt.Sprintf("You are %s short of this month's savings target.", p.Remaining.Format()))
		}
	} else {
		tips = append(tips, "Set a savings target for this month to track your progress.")
	}
	if dash.MonthlyBalance.IsNegative() {
		tips = append(tips, fmt.Sprintf("This month's expenses exceed income by %s.", core.Zero().Sub(dash.MonthlyBalance).Format()))
	}
	if len(tips) == 1 && len(dash.Budgets) == 0 {
		tips = append(tips, "Add budgets for your main categories to get spending alerts.")
	}
	return strings.Join(tips, "\n"), nil
}

func (u *UserStore) ExportCSV(ctx context.Context) ([]byte, error) {
	txs, err := u.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, txs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SyncUser upserts the profile of the store's subject. Empty fields do not
// overwrite stored ones.
func (u *UserStore) SyncUser(ctx context.Context, p core.UserProfile) (core.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return core.UserProfile{}, err
	}
	d := u.lock()
	defer u.unlock()
	if d.profile.ID == 0 {
		d.profile.ID = u.store.id()
	}
	if p.Email != "" {
		d.profile.Email = p.Email
	}
	if p.Name != "" {
		d.profile.Name = p.Name
	}
	return d.profile, nil
}

func (u *UserStore) Me(ctx context.Context) (core.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return core.UserProfile{}, err
	}
	d := u.lock()
	defer u.unlock()
	if d.profile.ID == 0 {
		return core.UserProfile{}, notFound("/users/me", "User not found")
	}
	return d.profile, nil
}

func (u *UserStore) UpdateProfile(ctx context.Context, p core.UserProfile) (core.UserProfile, error) {
	if _, err := u.Me(ctx); err != nil {
		return core.UserProfile{}, err
	}
	return u.SyncUser(ctx, p)
}

func withSpent(b core.BudgetRecord, txs []core.Transaction) core.BudgetRecord {
	spent := analytics.SpentInPeriod(txs, b.Category, b.Period())
	b.SpentAmount = &spent
	return b
}

func withProgress(s core.SavingsRecord, txs []core.Transaction) core.SavingsRecord {
	net := analytics.NetInPeriod(txs, s.Period())
	s.ProgressAmount = &net
	return s
}

func mustAmount(s string) core.Money {
	m, err := core.ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return m
}
