package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expenses/internal/core"
)

// SheetsMirror pushes the export table to a Google Sheets tab, replacing
// whatever the tab held before.
type SheetsMirror struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	loc           *time.Location
}

// NewSheetsMirror authenticates with a service account key file.
func NewSheetsMirror(ctx context.Context, spreadsheetID, sheetName, credentialsFile string, loc *time.Location) (*SheetsMirror, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewSheetsMirrorWithService(svc, spreadsheetID, sheetName, loc), nil
}

// NewSheetsMirrorWithService wraps an existing service.
func NewSheetsMirrorWithService(svc *gsheet.Service, spreadsheetID, sheetName string, loc *time.Location) *SheetsMirror {
	if sheetName == "" {
		sheetName = SheetName
	}
	return &SheetsMirror{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName, loc: loc}
}

func (m *SheetsMirror) Name() string { return "sheets:" + m.sheetName }

func (m *SheetsMirror) Sync(ctx context.Context, expenses []core.Expense) error {
	clearRange := fmt.Sprintf("%s!A:D", m.sheetName)
	if _, err := m.svc.Spreadsheets.Values.Clear(m.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rows := Table(expenses, m.loc)
	vr := &gsheet.ValueRange{Values: make([][]interface{}, len(rows))}
	for i, r := range rows {
		vr.Values[i] = r
	}
	writeRange := fmt.Sprintf("%s!A1", m.sheetName)
	// RAW keeps the d/m/yyyy strings from being reparsed by the sheet locale.
	if _, err := m.svc.Spreadsheets.Values.Update(m.spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", writeRange, err)
	}
	return nil
}
