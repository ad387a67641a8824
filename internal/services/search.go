package services

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"budgetwise/internal/core"
)

// Query filters the transaction list. Text matches case-insensitively
// against description, category, type, amounts, currency and the date in
// both its ISO and display forms. DatePrefix ("2024", "2024-03" or
// "2024-03-05") restricts by date. Type, when set, keeps one side only.
type Query struct {
	Text       string
	DatePrefix string
	Type       core.TransactionType
}

func (q Query) IsZero() bool {
	return strings.TrimSpace(q.Text) == "" && strings.TrimSpace(q.DatePrefix) == "" && q.Type == ""
}

// Search returns the transactions matching q in their original order.
func Search(txs []core.Transaction, q Query) []core.Transaction {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	prefix := strings.TrimSpace(q.DatePrefix)

	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if q.Type != "" && tx.Type != q.Type {
			continue
		}
		if prefix != "" && !strings.HasPrefix(tx.Date.String(), prefix) {
			continue
		}
		if text != "" && !matchesText(tx, text) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func matchesText(tx core.Transaction, text string) bool {
	fields := []string{
		tx.Description,
		tx.Category,
		string(tx.Type),
		tx.Type.Label(),
		tx.Amount.String(),
		tx.Amount.Input(),
		tx.Amount.Format(),
		tx.Date.String(),
		tx.Date.Display(),
		tx.OriginalCurrency,
	}
	if tx.OriginalAmount != nil {
		fields = append(fields, tx.OriginalAmount.String(), tx.OriginalAmount.Input())
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), text) {
			return true
		}
	}
	return fuzzyCategory(tx.Category, text)
}

// fuzzyCategory tolerates small typos in category names ("entertainmnet").
// Short queries need an exact substring match.
func fuzzyCategory(category, text string) bool {
	if len(text) < 4 || category == "" {
		return false
	}
	maxDist := 1
	if len(text) >= 8 {
		maxDist = 2
	}
	return levenshtein.ComputeDistance(strings.ToLower(category), text) <= maxDist
}
