package analytics

import (
	"reflect"
	"testing"

	"budgetwise/internal/core"
)

func tx(typ core.TransactionType, cat string, amount int64, y, m, d int) core.Transaction {
	return core.Transaction{Type: typ, Category: cat, Amount: core.MoneyFromInt(amount), Date: core.NewDate(y, m, d)}
}

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		tx(core.Expense, "Food", 500, 2024, 3, 5),
		tx(core.Expense, "Food", 300, 2024, 3, 20),
		tx(core.Expense, "Transport", 100, 2024, 4, 1),
	}
}

func TestSpentInPeriod(t *testing.T) {
	txs := sampleTransactions()
	cases := []struct {
		category string
		period   core.Period
		want     int64
	}{
		{"Food", core.Period{Month: 3, Year: 2024}, 800},
		{"Food", core.Period{Month: 4, Year: 2024}, 0},
		{"Transport", core.Period{Month: 4, Year: 2024}, 100},
		{"Transport", core.Period{Month: 4, Year: 2023}, 0},
	}
	for _, tc := range cases {
		got := SpentInPeriod(txs, tc.category, tc.period)
		if !got.Equal(core.MoneyFromInt(tc.want)) {
			t.Errorf("SpentInPeriod(%s, %v) = %s, want %d", tc.category, tc.period, got, tc.want)
		}
	}
}

func TestAggregate(t *testing.T) {
	txs := append(sampleTransactions(),
		tx(core.Income, "Salary", 50000, 2024, 3, 1),
		tx(core.Income, "Freelance", 2000, 2024, 3, 2),
		tx(core.Expense, "Gadgets", 999, 2024, 3, 3),
		tx(core.Expense, "Bills", 1200, 2024, 3, 31),
	)
	s := Aggregate(txs, core.Period{Month: 3, Year: 2024})

	if !s.IncomeTotal.Equal(core.MoneyFromInt(52000)) {
		t.Errorf("income total = %s", s.IncomeTotal)
	}
	if !s.ExpenseTotal.Equal(core.MoneyFromInt(2000)) {
		t.Errorf("expense total = %s (unknown categories must be excluded)", s.ExpenseTotal)
	}
	if _, ok := s.ExpenseByCategory["Gadgets"]; ok {
		t.Errorf("unknown expense category leaked into breakdown")
	}
	if !s.IncomeByCategory["Freelance"].Equal(core.MoneyFromInt(2000)) {
		t.Errorf("income categories are not allow-listed, got %v", s.IncomeByCategory)
	}
	if !s.Net().Equal(core.MoneyFromInt(50000)) {
		t.Errorf("net = %s", s.Net())
	}
}

func TestAggregateIsReferentiallyTransparent(t *testing.T) {
	txs := sampleTransactions()
	before := append([]core.Transaction(nil), txs...)
	p := core.Period{Month: 3, Year: 2024}

	a := Aggregate(txs, p)
	b := Aggregate(txs, p)
	if !sameSummary(a, b) {
		t.Fatalf("aggregate differs across calls: %+v vs %+v", a, b)
	}
	if !reflect.DeepEqual(before, txs) {
		t.Fatalf("input was mutated")
	}
	a.ExpenseByCategory["Food"] = core.Zero()
	if c := Aggregate(txs, p); !c.ExpenseByCategory["Food"].Equal(core.MoneyFromInt(800)) {
		t.Fatalf("results share state")
	}
}

func sameSummary(a, b Summary) bool {
	if a.Period != b.Period || !a.IncomeTotal.Equal(b.IncomeTotal) || !a.ExpenseTotal.Equal(b.ExpenseTotal) {
		return false
	}
	return sameMap(a.IncomeByCategory, b.IncomeByCategory) && sameMap(a.ExpenseByCategory, b.ExpenseByCategory)
}

func sameMap(a, b map[string]core.Money) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}

func TestNetInPeriod(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Income, "Salary", 1000, 2024, 5, 1),
		tx(core.Expense, "Food", 1500, 2024, 5, 2),
		tx(core.Income, "Salary", 9999, 2024, 6, 1),
	}
	got := NetInPeriod(txs, core.Period{Month: 5, Year: 2024})
	if !got.Equal(core.MoneyFromInt(-500)) {
		t.Fatalf("net = %s", got)
	}
}

func TestAggregateAll(t *testing.T) {
	txs := append(sampleTransactions(), tx(core.Income, "Salary", 1000, 2023, 1, 1))
	s := AggregateAll(txs)
	if !s.ExpenseTotal.Equal(core.MoneyFromInt(900)) || !s.IncomeTotal.Equal(core.MoneyFromInt(1000)) {
		t.Fatalf("got %s / %s", s.IncomeTotal, s.ExpenseTotal)
	}
}

func TestExpenseBreakdownOrder(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, "Bills", 100, 2024, 3, 1),
		tx(core.Expense, "Food", 300, 2024, 3, 1),
		tx(core.Expense, "Health", 100, 2024, 3, 1),
	}
	rows := ExpenseBreakdown(Aggregate(txs, core.Period{Month: 3, Year: 2024}))
	var got []string
	for _, r := range rows {
		got = append(got, r.Category)
	}
	want := []string{"Food", "Bills", "Health"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if rows[0].Share != 60 {
		t.Fatalf("share = %v", rows[0].Share)
	}
}

func TestIncomeBreakdown(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Income, "Salary", 995, 2024, 3, 1),
		tx(core.Income, "Bonus", 5, 2024, 3, 1),
		tx(core.Income, "Gift", 0, 2024, 3, 1),
	}
	rows := IncomeBreakdown(Aggregate(txs, core.Period{Month: 3, Year: 2024}))
	if len(rows) != 5 {
		t.Fatalf("expected 4 known + 1 extra rows, got %d", len(rows))
	}
	if rows[0].Category != "Salary" || rows[4].Category != "Gift" {
		t.Fatalf("unexpected order: %+v", rows)
	}
	if ShareLabel(rows[2].Share) != "<1" {
		t.Fatalf("bonus share label = %s", ShareLabel(rows[2].Share))
	}
	if ShareLabel(rows[1].Share) != "0" {
		t.Fatalf("investment share label = %s", ShareLabel(rows[1].Share))
	}
}
