package reconcile

import (
	"errors"
	"testing"

	"budgetwise/internal/core"
)

func TestSelectLockedAndNew(t *testing.T) {
	f := Select(budgets(), march("Food"))
	if f.State() != Locked || f.ID() != 1 {
		t.Fatalf("state=%v id=%d", f.State(), f.ID())
	}
	if amt, ok := f.Amount(); !ok || !amt.Equal(core.MoneyFromInt(1000)) {
		t.Fatalf("amount = %s %v", amt, ok)
	}
	if f.Editable() || f.CanSubmit() {
		t.Fatalf("locked form must be read-only")
	}

	f = Select(budgets(), BudgetKey("Food", core.Period{Month: 4, Year: 2024}))
	if f.State() != New || f.ID() != 0 {
		t.Fatalf("state=%v id=%d", f.State(), f.ID())
	}
	if _, ok := f.Amount(); ok {
		t.Fatalf("amount should be cleared")
	}
}

func TestEditingEscapesOnSelectorChange(t *testing.T) {
	f, err := Select(budgets(), march("Food")).Edit()
	if err != nil || f.State() != Editing {
		t.Fatalf("edit: %v %v", f.State(), err)
	}
	f, _ = f.WithAmount(core.MoneyFromInt(42))

	f = Select(budgets(), BudgetKey("Food", core.Period{Month: 5, Year: 2024}))
	if f.State() != New {
		t.Fatalf("expected NEW after moving to an empty period, got %v", f.State())
	}
	if _, ok := f.Amount(); ok {
		t.Fatalf("amount should be cleared")
	}

	f = Select(budgets(), march("Transport"))
	if f.State() != Locked || f.ID() != 2 {
		t.Fatalf("expected LOCKED on id 2, got %v/%d", f.State(), f.ID())
	}
}

func TestTransitionsGuarded(t *testing.T) {
	locked := Select(budgets(), march("Food"))
	if _, err := locked.WithAmount(core.MoneyFromInt(1)); !errors.Is(err, ErrLocked) {
		t.Errorf("set amount while locked: %v", err)
	}
	if _, _, err := locked.BeginSubmit(); !errors.Is(err, ErrLocked) {
		t.Errorf("submit while locked: %v", err)
	}

	fresh := Select(budgets(), march("Health"))
	if _, err := fresh.Edit(); !errors.Is(err, ErrNotLocked) {
		t.Errorf("edit on NEW: %v", err)
	}
	if _, _, err := fresh.BeginSubmit(); !errors.Is(err, ErrNoAmount) {
		t.Errorf("submit without amount: %v", err)
	}
}

func TestSubmitCreate(t *testing.T) {
	key := march("Health")
	f, _ := Select(budgets(), key).WithAmount(core.MoneyFromInt(700))
	f, in, err := f.BeginSubmit()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if in.Op != Create || in.ID != 0 || in.Key != key || !in.Amount.Equal(core.MoneyFromInt(700)) {
		t.Fatalf("intent = %+v", in)
	}
	if _, _, err := f.BeginSubmit(); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("double submit: %v", err)
	}
	if f.Editable() {
		t.Fatalf("in-flight form must not be editable")
	}

	refetched := append(budgets(), core.BudgetRecord{ID: 10, Category: "Health", LimitAmount: core.MoneyFromInt(700), Month: 3, Year: 2024})
	f = FinishSubmit(f, refetched, nil)
	if f.State() != Locked || f.ID() != 10 || f.Submitting() {
		t.Fatalf("after success: %v id=%d submitting=%v", f.State(), f.ID(), f.Submitting())
	}
}

func TestSubmitUpdateAndFailure(t *testing.T) {
	f, _ := Select(budgets(), march("Food")).Edit()
	f, _ = f.WithAmount(core.MoneyFromInt(1500))
	f, in, err := f.BeginSubmit()
	if err != nil || in.Op != Update || in.ID != 1 {
		t.Fatalf("intent = %+v err=%v", in, err)
	}

	f = FinishSubmit(f, budgets(), errors.New("boom"))
	if f.State() != Editing || f.Submitting() {
		t.Fatalf("failure must leave form state: %v submitting=%v", f.State(), f.Submitting())
	}
	if amt, _ := f.Amount(); !amt.Equal(core.MoneyFromInt(1500)) {
		t.Fatalf("failure must keep input, got %s", amt)
	}
}

func TestCancel(t *testing.T) {
	f, _ := Select(budgets(), march("Food")).Edit()
	f, _ = f.WithAmount(core.MoneyFromInt(5))
	f = f.Cancel()
	if f.State() != Locked {
		t.Fatalf("state = %v", f.State())
	}
	if amt, _ := f.Amount(); !amt.Equal(core.MoneyFromInt(1000)) {
		t.Fatalf("cancel should restore stored amount, got %s", amt)
	}

	n, _ := Select(budgets(), march("Bills")).WithAmount(core.MoneyFromInt(5))
	n = n.Cancel()
	if _, ok := n.Amount(); ok || n.State() != New {
		t.Fatalf("cancel on NEW should clear amount")
	}
}

func TestResume(t *testing.T) {
	tests := []struct {
		name  string
		key   Key
		mode  Mode
		state State
		id    int64
	}{
		{"view existing", march("Food"), ModeView, Locked, 1},
		{"edit existing", march("Food"), ModeEdit, Editing, 1},
		{"cancel existing", march("Food"), ModeCancel, Locked, 1},
		{"edit without record", march("Bills"), ModeEdit, New, 0},
		{"cancel without record", march("Bills"), ModeCancel, New, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Resume(budgets(), tt.key, tt.mode)
			if f.State() != tt.state || f.ID() != tt.id {
				t.Errorf("got %v/%d, want %v/%d", f.State(), f.ID(), tt.state, tt.id)
			}
		})
	}

	f := Resume(budgets(), march("Food"), ModeCancel)
	if amt, ok := f.Amount(); !ok || !amt.Equal(core.MoneyFromInt(1000)) {
		t.Errorf("cancel should restore the stored amount, got %v %v", amt, ok)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeView, "edit": ModeEdit, "cancel": ModeCancel, "EDIT": ModeView, "x": ModeView} {
		if got := ParseMode(in); got != want {
			t.Errorf("ParseMode(%q) = %v, want %v", in, got, want)
		}
	}
}
