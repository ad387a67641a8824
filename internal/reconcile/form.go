package reconcile

import (
	"errors"

	"budgetwise/internal/core"
)

type State int

const (
	New State = iota
	Locked
	Editing
)

func (s State) String() string {
	switch s {
	case New:
		return "new"
	case Locked:
		return "locked"
	case Editing:
		return "editing"
	}
	return "unknown"
}

type Op int

const (
	Create Op = iota
	Update
)

func (o Op) String() string {
	if o == Update {
		return "update"
	}
	return "create"
}

// Intent is what a submit resolves to: create a record for Key, or update
// record ID.
type Intent struct {
	Op     Op
	ID     int64
	Key    Key
	Amount core.Money
}

var (
	ErrLocked         = errors.New("form is locked; edit the existing record first")
	ErrNotLocked      = errors.New("edit requires an existing record")
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	ErrNoAmount       = errors.New("amount is required")
)

// Form is the state of a create/edit form positioned on one selector.
type Form struct {
	state      State
	key        Key
	id         int64
	stored     core.Money
	amount     core.Money
	hasAmount  bool
	submitting bool
}

// Select positions a form on key. The previous state of any form is
// irrelevant: a matching record always yields LOCKED with its id and
// amount, and no match yields NEW with the amount cleared.
func Select[R Record](records []R, key Key) Form {
	r, ok := Lookup(records, key)
	if !ok {
		return Form{state: New, key: key}
	}
	return Form{
		state:     Locked,
		key:       key,
		id:        r.RecordID(),
		stored:    r.RecordAmount(),
		amount:    r.RecordAmount(),
		hasAmount: true,
	}
}

func (f Form) State() State { return f.state }

func (f Form) Key() Key { return f.key }

// ID is the matched record's id, 0 in NEW.
func (f Form) ID() int64 { return f.id }

// Amount is the value shown in the amount field; ok is false when the
// field is empty.
func (f Form) Amount() (core.Money, bool) { return f.amount, f.hasAmount }

func (f Form) Submitting() bool { return f.submitting }

// Editable reports whether the inputs accept changes.
func (f Form) Editable() bool { return f.state != Locked && !f.submitting }

// CanSubmit reports whether the submit control is enabled.
func (f Form) CanSubmit() bool { return f.Editable() && f.hasAmount }

// Edit escalates LOCKED to EDITING, keeping the matched id.
func (f Form) Edit() (Form, error) {
	if f.state != Locked {
		return f, ErrNotLocked
	}
	f.state = Editing
	return f, nil
}

// WithAmount sets the amount field.
func (f Form) WithAmount(m core.Money) (Form, error) {
	if f.state == Locked {
		return f, ErrLocked
	}
	if f.submitting {
		return f, ErrSubmitInFlight
	}
	f.amount = m
	f.hasAmount = true
	return f, nil
}

// ClearAmount empties the amount field.
func (f Form) ClearAmount() Form {
	if f.state == Locked || f.submitting {
		return f
	}
	f.amount = core.Zero()
	f.hasAmount = false
	return f
}

// BeginSubmit resolves the form to an Intent and marks it in flight, which
// disables further submits until FinishSubmit.
func (f Form) BeginSubmit() (Form, Intent, error) {
	switch {
	case f.state == Locked:
		return f, Intent{}, ErrLocked
	case f.submitting:
		return f, Intent{}, ErrSubmitInFlight
	case !f.hasAmount:
		return f, Intent{}, ErrNoAmount
	}
	in := Intent{Op: Create, Key: f.key, Amount: f.amount}
	if f.state == Editing {
		in.Op = Update
		in.ID = f.id
	}
	f.submitting = true
	return f, in, nil
}

// FinishSubmit ends an in-flight submission. On failure the form keeps its
// state and input so the user can retry. On success records must be the
// refetched collection; the lookup runs again on the same selector.
func FinishSubmit[R Record](f Form, records []R, err error) Form {
	if err != nil {
		f.submitting = false
		return f
	}
	return Select(records, f.key)
}

// Cancel discards unsaved edits. An EDITING form returns to LOCKED with
// the stored amount; a NEW form has its amount cleared.
func (f Form) Cancel() Form {
	if f.submitting {
		return f
	}
	switch f.state {
	case Editing, Locked:
		f.state = Locked
		f.amount = f.stored
		f.hasAmount = true
	default:
		f.amount = core.Zero()
		f.hasAmount = false
	}
	return f
}

// Mode is the form mode a client round trip asks for.
type Mode int

const (
	// ModeView shows a matched record locked.
	ModeView Mode = iota
	// ModeEdit escalates a matched record to EDITING.
	ModeEdit
	// ModeCancel drops the edits of an EDITING form.
	ModeCancel
)

// ParseMode reads a request's mode value. Unknown values are ModeView.
func ParseMode(s string) Mode {
	switch s {
	case "edit":
		return ModeEdit
	case "cancel":
		return ModeCancel
	}
	return ModeView
}

func (m Mode) String() string {
	switch m {
	case ModeEdit:
		return "edit"
	case ModeCancel:
		return "cancel"
	}
	return ""
}

// Resume rebuilds a form from a client round trip. Server-rendered pages
// send the selector and a requested mode; the matched record is always
// taken from records, never from the client. A cancelled form is the
// editing form with its edits discarded, so it lands on LOCKED when a
// record matches and on an empty NEW form otherwise.
func Resume[R Record](records []R, key Key, mode Mode) Form {
	f := Select(records, key)
	switch mode {
	case ModeEdit:
		if e, err := f.Edit(); err == nil {
			f = e
		}
	case ModeCancel:
		if e, err := f.Edit(); err == nil {
			f = e
		}
		f = f.Cancel()
	}
	return f
}
