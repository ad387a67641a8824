package services

import (
	"context"
	"fmt"

	"budgetwise/internal/core"
	"budgetwise/internal/events"
	applog "budgetwise/internal/log"
	"budgetwise/internal/reconcile"
)

func (s *Service) BudgetsPage(ctx context.Context, u User, f RecordFilter) (BudgetsView, error) {
	records, txs, err := withTransactions(ctx, s, u, s.Budgets)
	if err != nil {
		return BudgetsView{Filter: f}, err
	}
	return BuildBudgetsView(records, txs, f), nil
}

func (s *Service) SavingsPage(ctx context.Context, u User, f RecordFilter) (SavingsView, error) {
	records, txs, err := withTransactions(ctx, s, u, s.Savings)
	if err != nil {
		return SavingsView{Filter: f}, err
	}
	return BuildSavingsView(records, txs, f), nil
}

// BudgetForm positions the budget form on key using a fresh fetch, so the
// lock reflects the backend's current records. ModeEdit escalates a locked
// form to editing and ModeCancel drops back from it.
func (s *Service) BudgetForm(ctx context.Context, u User, key reconcile.Key, mode reconcile.Mode) (reconcile.Form, error) {
	records, err := s.freshBudgets(ctx, u)
	if err != nil {
		return reconcile.Form{}, err
	}
	return reconcile.Resume(records, key, mode), nil
}

func (s *Service) SavingsForm(ctx context.Context, u User, key reconcile.Key, mode reconcile.Mode) (reconcile.Form, error) {
	records, err := s.freshSavings(ctx, u)
	if err != nil {
		return reconcile.Form{}, err
	}
	return reconcile.Resume(records, key, mode), nil
}

func editMode(wantEdit bool) reconcile.Mode {
	if wantEdit {
		return reconcile.ModeEdit
	}
	return reconcile.ModeView
}

// SaveBudget submits amount for key. The form is re-derived from fresh
// records first: a NEW form creates, an EDITING form updates the matched
// record, and a LOCKED form (wantEdit false on an existing record) fails
// with reconcile.ErrLocked. On failure the returned form keeps the entered
// amount so the user can retry.
func (s *Service) SaveBudget(ctx context.Context, u User, key reconcile.Key, amount core.Money, wantEdit bool) (core.BudgetRecord, reconcile.Form, error) {
	records, err := s.freshBudgets(ctx, u)
	if err != nil {
		return core.BudgetRecord{}, reconcile.Form{}, err
	}

	form := reconcile.Resume(records, key, editMode(wantEdit))
	form, err = form.WithAmount(amount)
	if err != nil {
		return core.BudgetRecord{}, form, err
	}

	rec := core.BudgetRecord{
		ID:          form.ID(),
		Category:    key.Category,
		LimitAmount: amount,
		Month:       key.Period.Month,
		Year:        key.Period.Year,
	}
	if err := rec.Validate(); err != nil {
		return core.BudgetRecord{}, form, err
	}

	form, intent, err := form.BeginSubmit()
	if err != nil {
		return core.BudgetRecord{}, form, err
	}

	cctx, cancel := s.call(ctx)
	var saved core.BudgetRecord
	if intent.Op == reconcile.Update {
		saved, err = u.Backend.UpdateBudget(cctx, rec)
	} else {
		saved, err = u.Backend.CreateBudget(cctx, rec)
	}
	cancel()
	if err != nil {
		return core.BudgetRecord{}, reconcile.FinishSubmit(form, records, err), fmt.Errorf("%s budget: %w", intent.Op, err)
	}

	s.Invalidate(u)
	s.audit.LogRecordSaved(ctx, u.Subject, intent.Op.String(), string(events.KindBudget), saved.ID, saved.Category, saved.Period().String())
	s.publish(ctx, budgetEvent(u, actionFor(intent.Op), saved))

	fresh, err := s.freshBudgets(ctx, u)
	if err != nil {
		// The write went through; show it as locked from what we know.
		fresh = []core.BudgetRecord{saved}
	}
	return saved, reconcile.FinishSubmit(form, fresh, nil), nil
}

func (s *Service) SaveSavings(ctx context.Context, u User, key reconcile.Key, amount core.Money, wantEdit bool) (core.SavingsRecord, reconcile.Form, error) {
	records, err := s.freshSavings(ctx, u)
	if err != nil {
		return core.SavingsRecord{}, reconcile.Form{}, err
	}

	form := reconcile.Resume(records, key, editMode(wantEdit))
	form, err = form.WithAmount(amount)
	if err != nil {
		return core.SavingsRecord{}, form, err
	}

	rec := core.SavingsRecord{
		ID:           form.ID(),
		TargetAmount: amount,
		Month:        key.Period.Month,
		Year:         key.Period.Year,
	}
	if err := rec.Validate(); err != nil {
		return core.SavingsRecord{}, form, err
	}

	form, intent, err := form.BeginSubmit()
	if err != nil {
		return core.SavingsRecord{}, form, err
	}

	cctx, cancel := s.call(ctx)
	var saved core.SavingsRecord
	if intent.Op == reconcile.Update {
		saved, err = u.Backend.UpdateSavings(cctx, rec)
	} else {
		saved, err = u.Backend.CreateSavings(cctx, rec)
	}
	cancel()
	if err != nil {
		return core.SavingsRecord{}, reconcile.FinishSubmit(form, records, err), fmt.Errorf("%s savings: %w", intent.Op, err)
	}

	s.Invalidate(u)
	s.audit.LogRecordSaved(ctx, u.Subject, intent.Op.String(), string(events.KindSavings), saved.ID, "", saved.Period().String())
	s.publish(ctx, savingsEvent(u, actionFor(intent.Op), saved))

	fresh, err := s.freshSavings(ctx, u)
	if err != nil {
		fresh = []core.SavingsRecord{saved}
	}
	return saved, reconcile.FinishSubmit(form, fresh, nil), nil
}

// DeleteBudget removes the budget from the cached list before calling the
// backend and puts it back if the backend rejects the delete.
func (s *Service) DeleteBudget(ctx context.Context, u User, id int64) error {
	records, err := s.Budgets(ctx, u)
	if err != nil {
		return err
	}
	rest, removed, ok := reconcile.Remove(records, id)
	if ok {
		s.budgets.Set(budgetsKey(u), rest)
	}

	cctx, cancel := s.call(ctx)
	err = u.Backend.DeleteBudget(cctx, id)
	cancel()
	if err != nil {
		if ok {
			s.budgets.Set(budgetsKey(u), reconcile.Restore(rest, removed))
		}
		return fmt.Errorf("delete budget %d: %w", id, err)
	}

	s.Invalidate(u)
	ev := events.NewRecordEvent(events.KindBudget, events.ActionDeleted, u.Subject, id)
	if ok {
		ev.Category = removed.Record.Category
		ev.Period = removed.Record.Period().String()
	}
	s.audit.LogRecordSaved(ctx, u.Subject, applog.OpDelete, string(events.KindBudget), id, ev.Category, ev.Period)
	s.publish(ctx, ev)
	return nil
}

func (s *Service) DeleteSavings(ctx context.Context, u User, id int64) error {
	records, err := s.Savings(ctx, u)
	if err != nil {
		return err
	}
	rest, removed, ok := reconcile.Remove(records, id)
	if ok {
		s.savings.Set(savingsKey(u), rest)
	}

	cctx, cancel := s.call(ctx)
	err = u.Backend.DeleteSavings(cctx, id)
	cancel()
	if err != nil {
		if ok {
			s.savings.Set(savingsKey(u), reconcile.Restore(rest, removed))
		}
		return fmt.Errorf("delete savings %d: %w", id, err)
	}

	s.Invalidate(u)
	ev := events.NewRecordEvent(events.KindSavings, events.ActionDeleted, u.Subject, id)
	if ok {
		ev.Period = removed.Record.Period().String()
	}
	s.audit.LogRecordSaved(ctx, u.Subject, applog.OpDelete, string(events.KindSavings), id, "", ev.Period)
	s.publish(ctx, ev)
	return nil
}

func actionFor(op reconcile.Op) events.Action {
	if op == reconcile.Update {
		return events.ActionUpdated
	}
	return events.ActionCreated
}

func budgetEvent(u User, action events.Action, b core.BudgetRecord) events.RecordEvent {
	ev := events.NewRecordEvent(events.KindBudget, action, u.Subject, b.ID)
	ev.Category = b.Category
	ev.Period = b.Period().String()
	ev.Amount = b.LimitAmount.String()
	return ev
}

func savingsEvent(u User, action events.Action, s core.SavingsRecord) events.RecordEvent {
	ev := events.NewRecordEvent(events.KindSavings, action, u.Subject, s.ID)
	ev.Period = s.Period().String()
	ev.Amount = s.TargetAmount.String()
	return ev
}
