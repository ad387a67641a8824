package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		input       string
		expected    string
		expectError bool
	}{
		{"500", "500", false},
		{"12.34", "12.34", false},
		{"1,234.50", "1234.5", false},
		{" ₹ 99 ", "99", false},
		{"0", "0", false},
		{"", "", true},
		{"-3", "", true},
		{"+3", "", true},
		{"abc", "", true},
		{"1.2.3", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			m, err := ParseAmount(tc.input)
			if tc.expectError {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.String() != tc.expected {
				t.Fatalf("got %s, want %s", m, tc.expected)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "₹0.00"},
		{"5", "₹5.00"},
		{"999.999", "₹1,000.00"},
		{"1234.5", "₹1,234.50"},
		{"1234567.891", "₹1,234,567.89"},
	}
	for _, tc := range cases {
		m, err := ParseAmount(tc.in)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.in, err)
		}
		if got := m.Format(); got != tc.want {
			t.Errorf("Format(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
	if got := Zero().Sub(MoneyFromInt(20)).Format(); got != "-₹20.00" {
		t.Errorf("negative format = %s", got)
	}
	if got := FormatAmount(MoneyFromInt(1500), USD.Symbol()); got != "$1,500.00" {
		t.Errorf("usd format = %s", got)
	}
}

func TestPercent(t *testing.T) {
	if p := MoneyFromInt(800).Percent(MoneyFromInt(1000)); p != 80 {
		t.Fatalf("got %v", p)
	}
	if p := MoneyFromInt(800).Percent(Zero()); p != 0 {
		t.Fatalf("divide by zero guard: got %v", p)
	}
}

func TestMoneyJSON(t *testing.T) {
	var v struct {
		A Money  `json:"a"`
		B Money  `json:"b"`
		C *Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":12.50,"b":"3","c":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !v.A.Equal(mustAmount(t, "12.5")) {
		t.Fatalf("a = %s", v.A)
	}
	if !v.B.Equal(MoneyFromInt(3)) || v.C != nil {
		t.Fatalf("b = %s, c = %v", v.B, v.C)
	}
	out, _ := json.Marshal(MoneyFromInt(42))
	if string(out) != "42" {
		t.Fatalf("marshal = %s", out)
	}
}

func TestSum(t *testing.T) {
	got := Sum(MoneyFromInt(500), MoneyFromInt(300), mustAmount(t, "0.25"))
	if got.String() != "800.25" {
		t.Fatalf("got %s", got)
	}
}

func mustAmount(t *testing.T, s string) Money {
	t.Helper()
	m, err := ParseAmount(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return m
}
