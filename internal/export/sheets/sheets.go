// Package sheets pushes the transaction report into a Google Sheets tab.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetwise/internal/core"
	"budgetwise/internal/export"
)

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New builds an exporter authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Exporter {
	if sheetName == "" {
		sheetName = "Transactions"
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// ValueRows converts the report to sheet values. Amount columns are sent as
// numbers, everything else as text.
func ValueRows(txs []core.Transaction) [][]any {
	rows := export.Rows(txs)
	out := make([][]any, len(rows))
	for i, row := range rows {
		vals := make([]any, len(row))
		for j, cell := range row {
			vals[j] = cell
			if i > 0 && (j == 3 || j == 4) && cell != "" {
				if d, err := decimal.NewFromString(cell); err == nil {
					vals[j] = d.InexactFloat64()
				}
			}
		}
		out[i] = vals
	}
	return out
}

// Export replaces the tab's contents with the report and returns the
// A1 range written.
func (e *Exporter) Export(ctx context.Context, txs []core.Transaction) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := e.ensureSheet(ctx); err != nil {
		return "", err
	}

	tab := quote(e.sheetName)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, tab+"!A:G", &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", e.sheetName, err)
	}

	values := ValueRows(txs)
	ref := fmt.Sprintf("%s!A1:G%d", tab, len(values))
	// RAW keeps user text such as "=SUM(...)" descriptions from being evaluated.
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, ref, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write %s: %w", ref, err)
	}

	slog.InfoContext(ctx, "Exported transactions to sheet", "sheet", e.sheetName, "rows", len(values)-1)
	return ref, nil
}

func (e *Exporter) ensureSheet(ctx context.Context) error {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == e.sheetName {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: e.sheetName}},
		}},
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", e.sheetName, err)
	}
	slog.InfoContext(ctx, "Created sheet tab", "sheet", e.sheetName)
	return nil
}

func quote(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
