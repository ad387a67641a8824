// Package reconcile resolves a form selector against the period records
// already stored for a user and models the resulting create/edit lock.
//
// A selector is a (category, month, year) tuple for budgets or a
// (month, year) tuple for savings. Exactly one record may exist per
// selector. The form built around a selector is in one of three states:
//
//	NEW      no record matches; the amount is editable and submit creates
//	LOCKED   a record matches; its amount is shown read-only
//	EDITING  a record matches and the user asked to edit; submit updates it
//
// All transitions are pure functions returning a new Form.
package reconcile

import (
	"errors"
	"fmt"

	"budgetwise/internal/core"
)

// Record is a persisted per-period limit or target.
type Record interface {
	RecordID() int64
	RecordCategory() string
	RecordPeriod() core.Period
	RecordAmount() core.Money
}

// Key is a selector. Category is empty for savings.
type Key struct {
	Category string
	Period   core.Period
}

func BudgetKey(category string, p core.Period) Key {
	return Key{Category: category, Period: p}
}

func SavingsKey(p core.Period) Key {
	return Key{Period: p}
}

func (k Key) String() string {
	if k.Category == "" {
		return k.Period.String()
	}
	return fmt.Sprintf("%s/%s", k.Category, k.Period)
}

// KeyOf returns the selector a record occupies.
func KeyOf(r Record) Key {
	return Key{Category: r.RecordCategory(), Period: r.RecordPeriod()}
}

// Lookup scans records for the one occupying key. Every component of the
// key must match exactly.
func Lookup[R Record](records []R, key Key) (R, bool) {
	for _, r := range records {
		if KeyOf(r) == key {
			return r, true
		}
	}
	var zero R
	return zero, false
}

// Removal remembers where a record sat so that it can be put back.
type Removal[R Record] struct {
	Index  int
	Record R
}

// Remove returns a copy of records without the first record whose id
// matches. ok is false, and the copy equals the input, when no record has
// that id.
func Remove[R Record](records []R, id int64) (rest []R, removed Removal[R], ok bool) {
	rest = make([]R, 0, len(records))
	idx := -1
	for i, r := range records {
		if idx < 0 && r.RecordID() == id {
			idx = i
			removed = Removal[R]{Index: i, Record: r}
			continue
		}
		rest = append(rest, r)
	}
	return rest, removed, idx >= 0
}

// Restore puts a removed record back at its original position.
func Restore[R Record](records []R, rm Removal[R]) []R {
	idx := rm.Index
	if idx < 0 || idx > len(records) {
		idx = len(records)
	}
	out := make([]R, 0, len(records)+1)
	out = append(out, records[:idx]...)
	out = append(out, rm.Record)
	return append(out, records[idx:]...)
}

var ErrDuplicateKey = errors.New("more than one record for the same period")

// CheckUnique reports the first selector held by more than one record.
func CheckUnique[R Record](records []R) error {
	seen := make(map[Key]int64, len(records))
	for _, r := range records {
		k := KeyOf(r)
		if other, dup := seen[k]; dup {
			return fmt.Errorf("%w: %s (ids %d and %d)", ErrDuplicateKey, k, other, r.RecordID())
		}
		seen[k] = r.RecordID()
	}
	return nil
}
