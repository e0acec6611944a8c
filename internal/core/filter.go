package core

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AllCategories is the category sentinel meaning "no constraint".
const AllCategories = "all"

// Filter narrows an expense collection. Every field is optional; absent
// fields impose no constraint and present ones are ANDed.
type Filter struct {
	StartDate Date // inclusive
	EndDate   Date // inclusive
	Category  string
	MinAmount decimal.NullDecimal // inclusive
	MaxAmount decimal.NullDecimal // inclusive
}

// IsEmpty reports whether the filter imposes no constraint at all.
func (f Filter) IsEmpty() bool {
	return f.StartDate.IsEmpty() && f.EndDate.IsEmpty() && !f.hasCategory() &&
		!f.MinAmount.Valid && !f.MaxAmount.Valid
}

func (f Filter) hasCategory() bool {
	c := strings.TrimSpace(f.Category)
	return c != "" && !strings.EqualFold(c, AllCategories)
}

// Match reports whether e satisfies every present constraint. Dates compare
// at calendar-day granularity; an expense without any effective day fails
// any date bound.
func (f Filter) Match(e Expense, loc *time.Location) bool {
	if !f.StartDate.IsEmpty() || !f.EndDate.IsEmpty() {
		day := e.Day(loc)
		if day.IsEmpty() {
			return false
		}
		if !f.StartDate.IsEmpty() && day.Before(f.StartDate) {
			return false
		}
		if !f.EndDate.IsEmpty() && day.After(f.EndDate) {
			return false
		}
	}
	if f.hasCategory() && e.Category != strings.TrimSpace(f.Category) {
		return false
	}
	if f.MinAmount.Valid && e.Amount.LessThan(f.MinAmount.Decimal) {
		return false
	}
	if f.MaxAmount.Valid && e.Amount.GreaterThan(f.MaxAmount.Decimal) {
		return false
	}
	return true
}

// Apply returns the matching expenses in input order. The input is never
// modified.
func Apply(expenses []Expense, f Filter, loc *time.Location) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Match(e, loc) {
			out = append(out, e)
		}
	}
	return out
}

// ParseFilter reads start, end, category, min and max from query values.
// Malformed bounds are reported rather than silently dropped.
func ParseFilter(q url.Values) (Filter, error) {
	var f Filter
	var err error
	if f.StartDate, err = ParseDate(q.Get("start")); err != nil {
		return Filter{}, err
	}
	if f.EndDate, err = ParseDate(q.Get("end")); err != nil {
		return Filter{}, err
	}
	f.Category = strings.TrimSpace(q.Get("category"))
	if f.MinAmount, err = parseBound(q.Get("min")); err != nil {
		return Filter{}, err
	}
	if f.MaxAmount, err = parseBound(q.Get("max")); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func parseBound(s string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	m, err := ParseAmount(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(m.Decimal), nil
}

// Values is the inverse of ParseFilter, used by clients to build queries.
func (f Filter) Values() url.Values {
	q := url.Values{}
	if !f.StartDate.IsEmpty() {
		q.Set("start", f.StartDate.String())
	}
	if !f.EndDate.IsEmpty() {
		q.Set("end", f.EndDate.String())
	}
	if f.hasCategory() {
		q.Set("category", f.Category)
	}
	if f.MinAmount.Valid {
		q.Set("min", f.MinAmount.Decimal.String())
	}
	if f.MaxAmount.Valid {
		q.Set("max", f.MaxAmount.Decimal.String())
	}
	return q
}
