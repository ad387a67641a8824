package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"budgetwise/internal/core"
	"budgetwise/internal/reconcile"
)

var parserNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    core.Period
		wantErr error
	}{
		{"defaults to current", "", core.Period{Month: 3, Year: 2024}, nil},
		{"explicit", "month=12&year=2023", core.Period{Month: 12, Year: 2023}, nil},
		{"month only", "month=7", core.Period{Month: 7, Year: 2024}, nil},
		{"month out of range", "month=13", core.Period{}, core.ErrInvalidMonth},
		{"month not a number", "month=march", core.Period{}, core.ErrInvalidMonth},
		{"year not a number", "year=20x4", core.Period{}, core.ErrInvalidYear},
		{"year out of range", "year=1999", core.Period{}, core.ErrInvalidYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			got, err := ParsePeriod(values, parserNow)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseOptionalPeriod(t *testing.T) {
	p, err := ParseOptionalPeriod(url.Values{}, parserNow)
	if err != nil || p != nil {
		t.Fatalf("empty filter = %v, %v; want nil, nil", p, err)
	}

	p, err = ParseOptionalPeriod(url.Values{"year": {"2023"}}, parserNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *p != (core.Period{Month: 3, Year: 2023}) {
		t.Errorf("year-only filter = %+v", *p)
	}
}

func TestParseBudgetKey(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    reconcile.Key
		wantErr bool
	}{
		{"defaults", "", reconcile.BudgetKey("Food", core.Period{Month: 3, Year: 2024}), false},
		{"explicit", "category=Transport&month=1&year=2024", reconcile.BudgetKey("Transport", core.Period{Month: 1, Year: 2024}), false},
		{"income category rejected", "category=Salary", reconcile.Key{}, true},
		{"unknown category rejected", "category=Pets", reconcile.Key{}, true},
		{"bad month", "category=Food&month=0", reconcile.Key{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			got, err := ParseBudgetKey(values, parserNow)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		id      string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/budgets/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			got, err := ParseID(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"type": "EXPENSE", "category": "Food", "amount": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if got := parser.Get("category"); got != "Food" {
		t.Errorf("Get('category') = %q, want 'Food'", got)
	}
	if got := parser.Get("amount"); got != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", got)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "type=INCOME&category=Salary&description=March+pay%01"
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if got := parser.Get("description"); got != "March pay" {
		t.Errorf("Get('description') = %q, want control characters stripped", got)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(`{"type":`))
	req.Header.Set("Content-Type", "application/json")

	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Fatal("expected an error for truncated JSON")
	}
}
