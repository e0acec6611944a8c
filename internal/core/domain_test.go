package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-05", "2024-01-05", true},
		{" 2024-12-31 ", "2024-12-31", true},
		{"", "", true},
		{"05/01/2024", "", false},
		{"2024-13-01", "", false},
	}
	for i, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if tc.ok && d.String() != tc.want {
			t.Fatalf("case %d expected %q, got %q", i, tc.want, d.String())
		}
	}
}

func TestDateUnmarshalJSONSuffix(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`"2024-01-05T10:00:00"`, "2024-01-05", true},
		{`"2024-01-05T10:00:00Z"`, "2024-01-05", true},
		{`"2024-01-05 10:00"`, "2024-01-05", true},
		{`"2024-01-05garbage"`, "", false},
		{`"2024-01-05-"`, "", false},
	}
	for _, tc := range cases {
		var d Date
		err := json.Unmarshal([]byte(tc.in), &d)
		if !tc.ok {
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("%s: expected ErrInvalidDate, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || d.String() != tc.want {
			t.Fatalf("%s: got %q %v", tc.in, d.String(), err)
		}
	}
}

func TestExpenseDayPrefersExplicitDate(t *testing.T) {
	e := Expense{ID: "1704412800000", Date: NewDate(2023, 6, 1)}
	if got := e.Day(time.UTC).String(); got != "2023-06-01" {
		t.Fatalf("expected explicit date, got %s", got)
	}
}

func TestExpenseDayFallsBackToIDTimestamp(t *testing.T) {
	// 2024-01-05T00:00:00Z
	e := Expense{ID: "1704412800000"}
	if got := e.Day(time.UTC).String(); got != "2024-01-05" {
		t.Fatalf("expected id-derived day 2024-01-05, got %s", got)
	}
	hcm := time.FixedZone("ICT", 7*3600)
	late := Expense{ID: "1704470400000"} // 2024-01-05T16:00:00Z
	if got := late.Day(hcm).String(); got != "2024-01-05" {
		t.Fatalf("16:00Z is 23:00 in ICT, expected 2024-01-05, got %s", got)
	}
	later := Expense{ID: "1704474000000"} // 2024-01-05T17:00:00Z
	if got := later.Day(hcm).String(); got != "2024-01-06" {
		t.Fatalf("17:00Z is midnight in ICT, expected 2024-01-06, got %s", got)
	}
}

func TestExpenseDayWithoutDateOrTimestamp(t *testing.T) {
	e := Expense{ID: "abc"}
	if !e.Day(time.UTC).IsEmpty() {
		t.Fatalf("expected empty day for opaque id")
	}
}

func TestExpenseJSONShape(t *testing.T) {
	e := Expense{ID: "1", Amount: NewMoney(50000), Category: "Food", Date: NewDate(2024, 1, 5)}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(b)
	if got != `{"id":"1","amount":50000,"category":"Food","date":"2024-01-05"}` {
		t.Fatalf("unexpected json: %s", got)
	}

	var back Expense
	if err := json.Unmarshal([]byte(`{"id":"2","amount":"12.5","category":"Health","note":"x"}`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Amount.Equal(MustMoney("12.5")) || !back.Date.IsEmpty() || back.Note != "x" {
		t.Fatalf("unexpected decode: %+v", back)
	}

	if err := json.Unmarshal([]byte(`{"id":"3","amount":1,"date":"2024-02-03T10:00:00Z"}`), &back); err != nil {
		t.Fatalf("unmarshal timestamp date: %v", err)
	}
	if back.Date.String() != "2024-02-03" {
		t.Fatalf("expected timestamp truncated to day, got %s", back.Date)
	}
}

func TestValidateRejectsNegativeAmount(t *testing.T) {
	if err := (NewExpense{Amount: MustMoney("-1")}).Validate(); err == nil {
		t.Fatalf("expected error for negative amount")
	}
	if err := (NewExpense{Amount: Zero}).Validate(); err != nil {
		t.Fatalf("zero amount should be accepted, got %v", err)
	}
}

func TestNormalizeCategoryName(t *testing.T) {
	if _, err := NormalizeCategoryName("   "); err != ErrEmptyCategoryName {
		t.Fatalf("expected ErrEmptyCategoryName, got %v", err)
	}
	got, err := NormalizeCategoryName("  Pets ")
	if err != nil || got != "Pets" {
		t.Fatalf("unexpected normalize: %q %v", got, err)
	}
}

func TestIDGeneratorMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1704412800000)
	g := NewIDGeneratorWithClock(func() time.Time { return fixed })
	seen := map[string]bool{}
	prev := ""
	for i := 0; i < 50; i++ {
		id := g.Next()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		if prev != "" && len(id) == len(prev) && strings.Compare(id, prev) <= 0 {
			t.Fatalf("ids not increasing: %s after %s", id, prev)
		}
		prev = id
	}

	g.Seed("1800000000000")
	if id := g.Next(); id != "1800000000001" {
		t.Fatalf("expected generator to continue after seed, got %s", id)
	}
}
