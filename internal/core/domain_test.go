package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in          string
		y, m, d     int
		expectError bool
	}{
		{"2024-03-05", 2024, 3, 5, false},
		{"2024-03-31T23:30:00", 2024, 3, 31, false},
		{" 2024-12-01 ", 2024, 12, 1, false},
		{"2024-13-01", 0, 0, 0, true},
		{"05/03/2024", 0, 0, 0, true},
		{"", 0, 0, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			d, err := ParseDate(tc.in)
			if tc.expectError {
				if !errors.Is(err, ErrInvalidDate) {
					t.Fatalf("expected ErrInvalidDate, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Year() != tc.y || int(d.Month()) != tc.m || d.Day() != tc.d {
				t.Fatalf("got %s", d)
			}
		})
	}
}

func TestDateJSON(t *testing.T) {
	var tx Transaction
	if err := json.Unmarshal([]byte(`{"id":7,"type":"EXPENSE","category":"Food","amount":500.25,"date":"2024-03-05"}`), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tx.Date.String() != "2024-03-05" || tx.Period() != (Period{Month: 3, Year: 2024}) {
		t.Fatalf("unexpected date %s", tx.Date)
	}
	if tx.Amount.String() != "500.25" {
		t.Fatalf("unexpected amount %s", tx.Amount)
	}
	out, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":7,"type":"EXPENSE","category":"Food","amount":500.25,"date":"2024-03-05"}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestPeriodValidate(t *testing.T) {
	cases := []struct {
		p   Period
		err error
	}{
		{Period{Month: 1, Year: 2024}, nil},
		{Period{Month: 12, Year: 2100}, nil},
		{Period{Month: 0, Year: 2024}, ErrInvalidMonth},
		{Period{Month: 13, Year: 2024}, ErrInvalidMonth},
		{Period{Month: 6, Year: 1999}, ErrInvalidYear},
	}
	for _, tc := range cases {
		err := tc.p.Validate()
		if tc.err == nil && err != nil {
			t.Errorf("%v: unexpected error %v", tc.p, err)
		}
		if tc.err != nil && !errors.Is(err, tc.err) {
			t.Errorf("%v: expected %v, got %v", tc.p, tc.err, err)
		}
	}
}

func TestPeriodNavigation(t *testing.T) {
	p := Period{Month: 1, Year: 2024}
	if got := p.Prev(); got != (Period{Month: 12, Year: 2023}) {
		t.Fatalf("prev: %v", got)
	}
	if got := (Period{Month: 12, Year: 2024}).Next(); got != (Period{Month: 1, Year: 2025}) {
		t.Fatalf("next: %v", got)
	}
	if p.Label() != "January 2024" {
		t.Fatalf("label: %s", p.Label())
	}
	if !p.Contains(NewDate(2024, 1, 31)) || p.Contains(NewDate(2023, 1, 31)) {
		t.Fatal("contains mismatch")
	}
	if got := CurrentPeriod(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)); got != (Period{Month: 3, Year: 2024}) {
		t.Fatalf("current: %v", got)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Type: Expense, Category: "Food", Amount: MoneyFromInt(100), Date: NewDate(2024, 3, 5)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	orig := MoneyFromInt(10)
	foreign := Transaction{Type: Income, Category: "Salary", OriginalAmount: &orig, OriginalCurrency: "usd", Date: NewDate(2024, 3, 5)}
	if err := foreign.Validate(); err != nil {
		t.Fatalf("expected ok for foreign amount, got %v", err)
	}

	bads := []Transaction{
		{Type: "TRANSFER", Category: "Food", Amount: MoneyFromInt(1), Date: NewDate(2024, 1, 1)},
		{Type: Expense, Category: "Food", Amount: MoneyFromInt(1)},
		{Type: Expense, Category: "Salary", Amount: MoneyFromInt(1), Date: NewDate(2024, 1, 1)},
		{Type: Income, Category: "Food", Amount: MoneyFromInt(1), Date: NewDate(2024, 1, 1)},
		{Type: Expense, Category: "Food", Amount: Zero(), Date: NewDate(2024, 1, 1)},
		{Type: Expense, Category: "Food", Amount: MoneyFromInt(1), OriginalCurrency: "JPY", Date: NewDate(2024, 1, 1)},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Errorf("case %d expected error", i)
		}
	}
}

func TestRecordValidate(t *testing.T) {
	if err := (BudgetRecord{Category: "Food", LimitAmount: Zero(), Month: 3, Year: 2024}).Validate(); err != nil {
		t.Fatalf("zero limit must be allowed: %v", err)
	}
	if err := (BudgetRecord{Category: "Salary", LimitAmount: MoneyFromInt(1), Month: 3, Year: 2024}).Validate(); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected category error, got %v", err)
	}
	neg := Zero().Sub(MoneyFromInt(5))
	if err := (SavingsRecord{TargetAmount: neg, Month: 3, Year: 2024}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected amount error, got %v", err)
	}
	if err := (SavingsRecord{TargetAmount: MoneyFromInt(5), Month: 0, Year: 2024}).Validate(); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected month error, got %v", err)
	}
}

func TestParseTransactionType(t *testing.T) {
	if tt, err := ParseTransactionType("income"); err != nil || tt != Income {
		t.Fatalf("got %v, %v", tt, err)
	}
	if _, err := ParseTransactionType("refund"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}
