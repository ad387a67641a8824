package core

// Dashboard is the backend's precomputed dashboard payload. All-time totals
// and the current month's totals, budgets and savings target.
type Dashboard struct {
	TotalIncome              Money            `json:"totalIncome"`
	TotalExpense             Money            `json:"totalExpense"`
	Balance                  Money            `json:"balance"`
	ExpenseByCategory        map[string]Money `json:"expenseByCategory"`
	MonthlyIncome            Money            `json:"monthlyIncome"`
	MonthlyExpense           Money            `json:"monthlyExpense"`
	MonthlyBalance           Money            `json:"monthlyBalance"`
	MonthlyExpenseByCategory map[string]Money `json:"monthlyExpenseByCategory"`
	Budgets                  []BudgetRecord   `json:"budgets"`
	MonthlySavings           *SavingsRecord   `json:"monthlySavings,omitempty"`
}

// Advice is the payload of the AI advice endpoint.
type Advice struct {
	Advice string `json:"advice"`
}
