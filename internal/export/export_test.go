package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expenses/internal/core"
)

func sample() []core.Expense {
	return []core.Expense{
		{ID: "2", Amount: core.NewMoney(20000), Category: "Transport", Date: core.NewDate(2024, 1, 6)},
		{ID: "1", Amount: core.MustMoney("10000.5"), Category: "Food", Note: "pho", Date: core.NewDate(2024, 1, 5)},
	}
}

func readRows(t *testing.T, r io.Reader) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(r)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sample(), time.UTC); err != nil {
		t.Fatal(err)
	}
	rows := readRows(t, &buf)
	want := [][]string{
		{"Category", "Amount", "Date", "Note"},
		{"Transport", "20000", "6/1/2024"},
		{"Food", "10000.5", "5/1/2024", "pho"},
	}
	if len(rows) != len(want) {
		t.Fatalf("want %d rows, got %d: %v", len(want), len(rows), rows)
	}
	for i := range want {
		got := strings.TrimRight(strings.Join(rows[i], "|"), "|")
		if got != strings.Join(want[i], "|") {
			t.Fatalf("row %d: want %v, got %v", i, want[i], rows[i])
		}
	}
}

func TestWriteXLSXAmountIsNumeric(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sample(), time.UTC); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	typ, err := f.GetCellType(SheetName, "B2")
	if err != nil {
		t.Fatal(err)
	}
	if typ != excelize.CellTypeNumber && typ != excelize.CellTypeUnset {
		t.Fatalf("amount cell type %v", typ)
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil, time.UTC); err != nil {
		t.Fatal(err)
	}
	if rows := readRows(t, &buf); len(rows) != 1 {
		t.Fatalf("want header only, got %v", rows)
	}
}

func TestSaveXLSXDoesNotMutateInput(t *testing.T) {
	in := sample()
	before, _ := json.Marshal(in)
	path := filepath.Join(t.TempDir(), "out", DefaultFileName)
	if err := (FileSink{Path: path, Location: time.UTC}).Sync(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	after, _ := json.Marshal(in)
	if !bytes.Equal(before, after) {
		t.Fatal("input mutated")
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
}

func TestSheetsMirrorSync(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
		body  gsheet.ValueRange
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatal(err)
	}
	m := NewSheetsMirrorWithService(svc, "sheet-id", "", time.UTC)
	if err := m.Sync(context.Background(), sample()); err != nil {
		t.Fatal(err)
	}

	if len(calls) != 2 {
		t.Fatalf("want clear then update, got %v", calls)
	}
	if !strings.HasPrefix(calls[0], "POST ") || !strings.HasSuffix(calls[0], ":clear") {
		t.Fatalf("first call should clear, got %s", calls[0])
	}
	if !strings.HasPrefix(calls[1], "PUT ") {
		t.Fatalf("second call should update, got %s", calls[1])
	}
	if len(body.Values) != 3 || body.Values[0][0] != "Category" || body.Values[2][2] != "5/1/2024" {
		t.Fatalf("unexpected values %v", body.Values)
	}
}
