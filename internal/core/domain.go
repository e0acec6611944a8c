package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used on the wire.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar day. The zero value means "no date".
	Date struct {
		time.Time
	}

	// Expense is a single dated outflow. Category is denormalised text, not
	// a reference to a Category record.
	Expense struct {
		ID       string `json:"id"`
		Amount   Money  `json:"amount"`
		Category string `json:"category"`
		Note     string `json:"note,omitempty"`
		Date     Date   `json:"date"`
	}

	// NewExpense is the create input; the store assigns the identifier.
	NewExpense struct {
		Amount   Money  `json:"amount"`
		Category string `json:"category"`
		Note     string `json:"note,omitempty"`
		Date     Date   `json:"date"`
	}

	Category struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
)

// DefaultCategories seeds an empty category collection.
var DefaultCategories = []string{
	"Food",
	"Transport",
	"Utilities",
	"Shopping",
	"Entertainment",
	"Health",
	"Other",
}

// FallbackCategory is used for new expenses when no category is known.
const FallbackCategory = "Other"

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrNegativeAmount    = errors.New("amount must not be negative")
	errNoTimestampInID   = errors.New("identifier carries no timestamp")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO calendar date. Empty input yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is absent.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String returns the ISO form, or "" for an absent date.
func (d Date) String() string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Date{}
		return nil
	}
	unq, err := strconv.Unquote(s)
	if err != nil {
		return ErrInvalidDate
	}
	// Tolerate full timestamps written by other clients.
	if len(unq) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, unq); err == nil {
			*d = DateOf(t)
			return nil
		}
		if c := unq[len(DateLayout)]; c != 'T' && c != ' ' {
			return ErrInvalidDate
		}
		unq = unq[:len(DateLayout)]
	}
	parsed, err := ParseDate(unq)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Before reports whether d is an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// CreatedAt returns the creation instant embedded in a time-derived
// identifier (milliseconds since the Unix epoch).
func CreatedAt(id string) (time.Time, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || ms < 0 {
		return time.Time{}, errNoTimestampInID
	}
	return time.UnixMilli(ms), nil
}

// Day returns the expense's calendar day: the explicit date when present,
// otherwise the day of the identifier's creation timestamp in loc.
// Expenses with neither yield the zero Date.
func (e Expense) Day(loc *time.Location) Date {
	if !e.Date.IsEmpty() {
		return e.Date
	}
	created, err := CreatedAt(e.ID)
	if err != nil {
		return Date{}
	}
	if loc == nil {
		loc = time.Local
	}
	return DateOf(created.In(loc))
}

// Validate checks the record invariants the stores rely on.
func (e Expense) Validate() error {
	if e.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (n NewExpense) Validate() error {
	if n.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// WithID materialises the create input into a stored record.
func (n NewExpense) WithID(id string) Expense {
	return Expense{
		ID:       id,
		Amount:   n.Amount,
		Category: n.Category,
		Note:     n.Note,
		Date:     n.Date,
	}
}

// NormalizeCategoryName trims the name and rejects blanks.
func NormalizeCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyCategoryName
	}
	return name, nil
}
