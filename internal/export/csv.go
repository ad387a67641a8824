// Package export renders transactions for download and for spreadsheet
// export.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"budgetwise/internal/core"
)

// Filename is the name under which the CSV report is offered for download.
const Filename = "budgetwise_report.csv"

// Header lists the report columns.
var Header = []string{"Date", "Type", "Category", "Amount (INR)", "Original Amount", "Original Currency", "Description"}

// Row converts one transaction to report columns. Line breaks in free text
// are flattened to spaces.
func Row(tx core.Transaction) []string {
	orig := ""
	if tx.OriginalAmount != nil {
		orig = tx.OriginalAmount.String()
	}
	return []string{
		tx.Date.String(),
		string(tx.Type),
		flatten(tx.Category),
		tx.Amount.String(),
		orig,
		flatten(tx.OriginalCurrency),
		flatten(tx.Description),
	}
}

// Rows returns the header followed by one row per transaction, newest first.
func Rows(txs []core.Transaction) [][]string {
	sorted := SortByDateDesc(txs)
	out := make([][]string, 0, len(sorted)+1)
	out = append(out, append([]string(nil), Header...))
	for _, tx := range sorted {
		out = append(out, Row(tx))
	}
	return out
}

// WriteCSV writes the report to w.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Rows(txs)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// SortByDateDesc returns a copy ordered newest first; ties keep the higher
// id first.
func SortByDateDesc(txs []core.Transaction) []core.Transaction {
	out := append([]core.Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func flatten(s string) string {
	return strings.Join(strings.Fields(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)), " ")
}
