package services

import (
	"testing"

	"budgetwise/internal/core"
)

func searchFixture() []core.Transaction {
	usd := core.MoneyFromInt(12)
	return []core.Transaction{
		{ID: 1, Type: core.Expense, Category: "Food", Amount: core.MoneyFromInt(450), Date: core.NewDate(2024, 3, 5), Description: "Lunch with team"},
		{ID: 2, Type: core.Expense, Category: "Entertainment", Amount: core.MoneyFromInt(999), Date: core.NewDate(2024, 3, 12), Description: "Concert"},
		{ID: 3, Type: core.Income, Category: "Salary", Amount: core.MoneyFromInt(85000), Date: core.NewDate(2024, 2, 1)},
		{ID: 4, Type: core.Expense, Category: "Shopping", Amount: core.MoneyFromInt(1000), OriginalAmount: &usd, OriginalCurrency: "USD", Date: core.NewDate(2024, 2, 20), Description: "Headphones"},
	}
}

func ids(txs []core.Transaction) []int64 {
	out := make([]int64, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []int64
	}{
		{name: "empty query keeps all", q: Query{}, want: []int64{1, 2, 3, 4}},
		{name: "description", q: Query{Text: "lunch"}, want: []int64{1}},
		{name: "category case-insensitive", q: Query{Text: "SALARY"}, want: []int64{3}},
		{name: "type label", q: Query{Text: "income"}, want: []int64{3}},
		{name: "amount", q: Query{Text: "999"}, want: []int64{2}},
		{name: "formatted amount", q: Query{Text: "85,000"}, want: []int64{3}},
		{name: "currency", q: Query{Text: "usd"}, want: []int64{4}},
		{name: "display date", q: Query{Text: "12 Mar"}, want: []int64{2}},
		{name: "category typo", q: Query{Text: "entertainmnet"}, want: []int64{2}},
		{name: "short typo not fuzzy", q: Query{Text: "fod"}, want: []int64{}},
		{name: "month prefix", q: Query{DatePrefix: "2024-02"}, want: []int64{3, 4}},
		{name: "day prefix", q: Query{DatePrefix: "2024-03-05"}, want: []int64{1}},
		{name: "type filter", q: Query{Type: core.Expense, DatePrefix: "2024-02"}, want: []int64{4}},
		{name: "text and prefix", q: Query{Text: "e", DatePrefix: "2024-03"}, want: []int64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Search(searchFixture(), tt.q))
			if len(got) != len(tt.want) {
				t.Fatalf("Search() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Search() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestParseTransaction(t *testing.T) {
	tests := []struct {
		name    string
		in      TransactionInput
		wantErr error
	}{
		{
			name: "expense in rupees",
			in:   TransactionInput{Type: "expense", Category: "Food", Amount: "250.50", Date: "2024-03-05"},
		},
		{
			name: "income in dollars",
			in:   TransactionInput{Type: "INCOME", Category: "Bonus", Amount: "100", Currency: "usd", Date: "2024-03-05"},
		},
		{
			name:    "zero amount",
			in:      TransactionInput{Type: "EXPENSE", Category: "Food", Amount: "0", Date: "2024-03-05"},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "income category on expense",
			in:      TransactionInput{Type: "EXPENSE", Category: "Salary", Amount: "1", Date: "2024-03-05"},
			wantErr: core.ErrInvalidCategory,
		},
		{
			name:    "unknown currency",
			in:      TransactionInput{Type: "EXPENSE", Category: "Food", Amount: "1", Currency: "JPY", Date: "2024-03-05"},
			wantErr: core.ErrInvalidCurrency,
		},
		{
			name:    "bad type",
			in:      TransactionInput{Type: "transfer", Category: "Food", Amount: "1", Date: "2024-03-05"},
			wantErr: core.ErrInvalidType,
		},
		{
			name:    "bad date",
			in:      TransactionInput{Type: "EXPENSE", Category: "Food", Amount: "1", Date: "05/03/2024"},
			wantErr: core.ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := ParseTransaction(tt.in)
			if tt.wantErr != nil {
				if !IsValidation(err) {
					t.Fatalf("ParseTransaction() error = %v, want validation %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTransaction() error = %v", err)
			}
			if tx.OriginalAmount == nil || tx.OriginalCurrency == "" {
				t.Errorf("original amount/currency not set: %+v", tx)
			}
		})
	}
}
