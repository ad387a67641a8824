package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"budgetwise/internal/core"
	"budgetwise/internal/events"
	"budgetwise/internal/export"
)

// TransactionInput is the raw form of a new transaction.
type TransactionInput struct {
	Type        string
	Category    string
	Amount      string
	Currency    string
	Date        string
	Description string
}

// ParseTransaction validates in and builds the transaction to submit.
// Category must belong to the type's category set; an empty currency means
// the default.
func ParseTransaction(in TransactionInput) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(in.Type)
	if err != nil {
		return core.Transaction{}, err
	}

	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	if !amount.IsPositive() {
		return core.Transaction{}, fmt.Errorf("%w: must be greater than zero", core.ErrInvalidAmount)
	}

	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	currency := core.DefaultCurrency
	if strings.TrimSpace(in.Currency) != "" {
		c, ok := core.ParseCurrency(in.Currency)
		if !ok {
			return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidCurrency, in.Currency)
		}
		currency = c
	}

	tx := core.Transaction{
		Type:             typ,
		Category:         strings.TrimSpace(in.Category),
		Amount:           amount,
		OriginalAmount:   &amount,
		OriginalCurrency: string(currency),
		Date:             date,
		Description:      strings.TrimSpace(in.Description),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// CreateTransaction submits tx; the backend converts foreign currency
// amounts to the canonical currency.
func (s *Service) CreateTransaction(ctx context.Context, u User, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	cctx, cancel := s.call(ctx)
	created, err := u.Backend.CreateTransaction(cctx, tx)
	cancel()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.Invalidate(u)
	ev := events.NewRecordEvent(events.KindTransaction, events.ActionCreated, u.Subject, created.ID)
	ev.Category = created.Category
	ev.Period = created.Date.Period().String()
	ev.Amount = created.Amount.String()
	s.publish(ctx, ev)
	return created, nil
}

// DeleteTransaction removes the transaction optimistically from the cached
// list and restores it if the backend rejects the delete.
func (s *Service) DeleteTransaction(ctx context.Context, u User, id int64) error {
	txs, err := s.Transactions(ctx, u)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(txs, func(tx core.Transaction) bool { return tx.ID == id })
	if idx >= 0 {
		rest := slices.Delete(slices.Clone(txs), idx, idx+1)
		s.txs.Set(transactionsKey(u), rest)
	}

	cctx, cancel := s.call(ctx)
	err = u.Backend.DeleteTransaction(cctx, id)
	cancel()
	if err != nil {
		if idx >= 0 {
			s.txs.Set(transactionsKey(u), txs)
		}
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	s.Invalidate(u)
	s.publish(ctx, events.NewRecordEvent(events.KindTransaction, events.ActionDeleted, u.Subject, id))
	return nil
}

// TransactionsPage returns the user's transactions matching q, newest first.
func (s *Service) TransactionsPage(ctx context.Context, u User, q Query) ([]core.Transaction, error) {
	txs, err := s.Transactions(ctx, u)
	if err != nil {
		return nil, err
	}
	return export.SortByDateDesc(Search(txs, q)), nil
}
