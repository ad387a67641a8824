package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"budgetwise/internal/core"
)

// BudgetFilter narrows GET /budgets. Zero fields are not sent.
type BudgetFilter struct {
	Category string
	Period   *core.Period
}

func (f BudgetFilter) values() url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Period != nil {
		q.Set("month", strconv.Itoa(f.Period.Month))
		q.Set("year", strconv.Itoa(f.Period.Year))
	}
	return q
}

func periodValues(p *core.Period) url.Values {
	return BudgetFilter{Period: p}.values()
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var out []core.Transaction
	if err := c.doJSON(ctx, http.MethodGet, "/transactions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	var out core.Transaction
	err := c.doJSON(ctx, http.MethodPost, "/transactions", nil, tx, &out)
	return out, err
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, idPath("/transactions", id), nil, nil)
	return err
}

func (c *Client) ListBudgets(ctx context.Context, f BudgetFilter) ([]core.BudgetRecord, error) {
	var out []core.BudgetRecord
	if err := c.doJSON(ctx, http.MethodGet, "/budgets", f.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBudget(ctx context.Context, b core.BudgetRecord) (core.BudgetRecord, error) {
	b.ID = 0
	var out core.BudgetRecord
	err := c.doJSON(ctx, http.MethodPost, "/budgets", nil, b, &out)
	return out, err
}

// UpdateBudget sends PUT /budgets; the record id travels in the body.
func (c *Client) UpdateBudget(ctx context.Context, b core.BudgetRecord) (core.BudgetRecord, error) {
	var out core.BudgetRecord
	err := c.doJSON(ctx, http.MethodPut, "/budgets", nil, b, &out)
	return out, err
}

func (c *Client) DeleteBudget(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, idPath("/budgets", id), nil, nil)
	return err
}

func (c *Client) ListSavings(ctx context.Context, p *core.Period) ([]core.SavingsRecord, error) {
	var out []core.SavingsRecord
	if err := c.doJSON(ctx, http.MethodGet, "/savings", periodValues(p), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSavings(ctx context.Context, s core.SavingsRecord) (core.SavingsRecord, error) {
	s.ID = 0
	var out core.SavingsRecord
	err := c.doJSON(ctx, http.MethodPost, "/savings", nil, s, &out)
	return out, err
}

func (c *Client) UpdateSavings(ctx context.Context, s core.SavingsRecord) (core.SavingsRecord, error) {
	var out core.SavingsRecord
	err := c.doJSON(ctx, http.MethodPut, "/savings", nil, s, &out)
	return out, err
}

func (c *Client) DeleteSavings(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, idPath("/savings", id), nil, nil)
	return err
}

func (c *Client) Dashboard(ctx context.Context) (core.Dashboard, error) {
	var out core.Dashboard
	err := c.doJSON(ctx, http.MethodGet, "/dashboard", nil, nil, &out)
	return out, err
}

// Advice triggers advice generation on the backend. It can take several
// seconds.
func (c *Client) Advice(ctx context.Context) (string, error) {
	var out core.Advice
	if err := c.doJSON(ctx, http.MethodPost, "/ai/advice", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Advice, nil
}

// ExportCSV returns the backend's CSV export as opaque bytes.
func (c *Client) ExportCSV(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/export/csv", nil, nil)
}

// SyncUser upserts the user keyed by the token's subject.
func (c *Client) SyncUser(ctx context.Context, p core.UserProfile) (core.UserProfile, error) {
	var out core.UserProfile
	err := c.doJSON(ctx, http.MethodPost, "/users/sync", nil, p, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context) (core.UserProfile, error) {
	var out core.UserProfile
	err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, nil, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, p core.UserProfile) (core.UserProfile, error) {
	var out core.UserProfile
	err := c.doJSON(ctx, http.MethodPut, "/users/profile", nil, p, &out)
	return out, err
}
