// Package export serialises expense collections into spreadsheets.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"expenses/internal/core"
)

const (
	SheetName       = "Expenses"
	DefaultFileName = "MyExpenses.xlsx"
)

// Header is the first row of every export.
var Header = []any{"Category", "Amount", "Date", "Note"}

// Sink receives full snapshots of the expense collection.
type Sink interface {
	Name() string
	Sync(ctx context.Context, expenses []core.Expense) error
}

// Table renders the header plus one row per expense in input order. Amounts
// stay numeric; dates use the d/m/yyyy display convention.
func Table(expenses []core.Expense, loc *time.Location) [][]any {
	rows := make([][]any, 0, len(expenses)+1)
	rows = append(rows, Header)
	for _, e := range expenses {
		rows = append(rows, []any{
			e.Category,
			e.Amount.InexactFloat64(),
			core.FormatDay(e.Day(loc)),
			e.Note,
		})
	}
	return rows
}

// WriteXLSX writes a single-sheet workbook to w. Nothing but w is touched.
func WriteXLSX(w io.Writer, expenses []core.Expense, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, row := range Table(expenses, loc) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to path (DefaultFileName when empty). The
// file is replaced atomically so readers never see a partial workbook.
func SaveXLSX(path string, expenses []core.Expense, loc *time.Location) error {
	if path == "" {
		path = DefaultFileName
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteXLSX(tmp, expenses, loc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// FileSink keeps an xlsx snapshot on disk.
type FileSink struct {
	Path     string
	Location *time.Location
}

func (s FileSink) Name() string { return "xlsx:" + s.Path }

func (s FileSink) Sync(_ context.Context, expenses []core.Expense) error {
	return SaveXLSX(s.Path, expenses, s.Location)
}
