package core

import (
	"sort"
	"time"
)

// DayTotal is the summed spending of one calendar day.
type DayTotal struct {
	Day    string // ISO date key
	Amount Money
}

// CategoryTotal represents an amount aggregated by category name.
type CategoryTotal struct {
	Name   string
	Amount Money
}

// Overview is everything the dashboard renders.
type Overview struct {
	Total      Money
	Daily      []DayTotal
	ByCategory []CategoryTotal

	// Labels holds one "dd/mm" chart label per Daily entry.
	Labels []string
	// Colors holds one colour per ByCategory entry, truncated to the palette.
	Colors []string
}

// Palette holds the category chart colours in display order.
var Palette = []string{
	"#6750A4",
	"#B58392",
	"#7D5260",
	"#625B71",
	"#E8DEF8",
	"#FFD8E4",
	"#31111D",
}

// undatedKey groups expenses that have neither a date nor a time-derived id.
const undatedKey = ""

// DailyTotals sums amounts per effective calendar day, ascending by day.
func DailyTotals(expenses []Expense, loc *time.Location) []DayTotal {
	sums := make(map[string]Money)
	for _, e := range expenses {
		key := undatedKey
		if d := e.Day(loc); !d.IsEmpty() {
			key = d.String()
		}
		sums[key] = sums[key].Add(e.Amount)
	}
	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]DayTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, DayTotal{Day: k, Amount: sums[k]})
	}
	return out
}

// CategoryTotals sums amounts per exact category string in first-seen order.
func CategoryTotals(expenses []Expense) []CategoryTotal {
	index := make(map[string]int)
	var out []CategoryTotal
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryTotal{Name: e.Category, Amount: Zero})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

// GrandTotal sums every amount.
func GrandTotal(expenses []Expense) Money {
	total := Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Summarize builds the dashboard overview.
func Summarize(expenses []Expense, loc *time.Location) Overview {
	o := Overview{
		Total:      GrandTotal(expenses),
		Daily:      DailyTotals(expenses, loc),
		ByCategory: CategoryTotals(expenses),
	}
	o.Labels = make([]string, len(o.Daily))
	for i, d := range o.Daily {
		o.Labels[i] = DayLabel(d.Day)
	}
	o.Colors = PaletteFor(len(o.ByCategory))
	return o
}

// DayLabel renders an ISO day key as the "dd/mm" chart label.
func DayLabel(key string) string {
	d, err := ParseDate(key)
	if err != nil || d.IsEmpty() {
		return key
	}
	return d.Format("02/01")
}

// PaletteFor returns colours for n category slices. The palette is truncated,
// not recycled: slices past len(Palette) get no colour.
func PaletteFor(n int) []string {
	if n > len(Palette) {
		n = len(Palette)
	}
	if n < 0 {
		n = 0
	}
	return append([]string(nil), Palette[:n]...)
}

// FormatDay renders a day in the short vi-VN convention, e.g. "5/1/2024".
func FormatDay(d Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format("2/1/2006")
}
