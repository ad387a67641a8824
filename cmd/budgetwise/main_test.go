package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"budgetwise/internal/analytics"
	"budgetwise/internal/core"
	"budgetwise/internal/events"
	"budgetwise/internal/services"
)

func money(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseAmount(s)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestPrintReport(t *testing.T) {
	p := core.Period{Month: 3, Year: 2024}
	txs := []core.Transaction{
		{ID: 1, Type: core.Income, Category: "Salary", Amount: money(t, "50000"), Date: core.NewDate(2024, 3, 1)},
		{ID: 2, Type: core.Expense, Category: "Food", Amount: money(t, "6000"), Date: core.NewDate(2024, 3, 5)},
	}
	budgets := []core.BudgetRecord{{ID: 1, Category: "Food", LimitAmount: money(t, "5000"), Month: 3, Year: 2024}}
	savings := []core.SavingsRecord{{ID: 1, TargetAmount: money(t, "10000"), Month: 3, Year: 2024}}

	f := services.RecordFilter{Period: &p}
	report := services.PeriodReport{
		Summary: analytics.Aggregate(txs, p),
		Budgets: services.BuildBudgetsView(budgets, txs, f),
		Savings: services.BuildSavingsView(savings, txs, f),
	}

	var out bytes.Buffer
	if err := printReport(&out, p, report); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{
		"=== March 2024 ===",
		"₹50,000.00",
		"₹6,000.00",
		"₹44,000.00",
		"over by ₹1,000.00",
		"met",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestPrintReportEmpty(t *testing.T) {
	p := core.Period{Month: 1, Year: 2025}
	var out bytes.Buffer
	report := services.PeriodReport{Summary: analytics.Aggregate(nil, p)}
	if err := printReport(&out, p, report); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "(none)") || !strings.Contains(out.String(), "(no target)") {
		t.Errorf("empty report:\n%s", out.String())
	}
}

func TestSummaryPeriod(t *testing.T) {
	now := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	t.Cleanup(func() { summaryMonth, summaryYear = 0, 0 })

	tests := []struct {
		month, year int
		want        core.Period
	}{
		{0, 0, core.Period{Month: 7, Year: 2024}},
		{3, 0, core.Period{Month: 3, Year: 2024}},
		{0, 2023, core.Period{Month: 7, Year: 2023}},
		{12, 2022, core.Period{Month: 12, Year: 2022}},
	}
	for _, tt := range tests {
		summaryMonth, summaryYear = tt.month, tt.year
		if got := summaryPeriod(now); got != tt.want {
			t.Errorf("summaryPeriod(%d, %d) = %v, want %v", tt.month, tt.year, got, tt.want)
		}
	}
}

func TestPrintEvent(t *testing.T) {
	var out bytes.Buffer
	ev := events.NewRecordEvent(events.KindBudget, events.ActionCreated, "user-1", 42)
	if err := printEvent(&out)(context.Background(), &ev); err != nil {
		t.Fatal(err)
	}

	line := strings.TrimSuffix(out.String(), "\n")
	if strings.Contains(line, "\n") {
		t.Fatalf("expected one line, got %q", out.String())
	}
	var decoded events.RecordEvent
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.ID != ev.ID || decoded.RecordID != 42 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestPrintProfile(t *testing.T) {
	tests := []struct {
		in   core.UserProfile
		want []string
	}{
		{core.UserProfile{Subject: "user_1", Name: "Asha", Email: "asha@example.com"}, []string{"user_1", "Asha", "asha@example.com"}},
		{core.UserProfile{Subject: "user_2"}, []string{"Name:    -", "Email:   -"}},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		if err := printProfile(&out, tt.in); err != nil {
			t.Fatal(err)
		}
		for _, w := range tt.want {
			if !strings.Contains(out.String(), w) {
				t.Errorf("profile output missing %q:\n%s", w, out.String())
			}
		}
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"serve"},
		{"summary"},
		{"export", "csv"},
		{"export", "sheets"},
		{"events", "tail"},
		{"session", "keygen"},
		{"session", "purge"},
		{"token"},
		{"profile"},
		{"profile", "set"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not found: %v", path, err)
		}
	}
}
