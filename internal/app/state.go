// Package app holds the application state: the in-memory expense and
// category collections kept in step with a store.Store.
package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/store"
)

// State owns the in-memory collections for the lifetime of a process.
// Collections are mutated only after the store confirmed the change, so a
// failed call leaves them exactly as they were.
type State struct {
	store  store.Store
	loc    *time.Location
	now    func() time.Time
	logger *log.Logger

	mu         sync.RWMutex
	expenses   []core.Expense // newest first
	categories []core.Category

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

type Option func(*State)

// WithLocation sets the zone used for "today" and for days derived from
// expense ids. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *State) { s.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *State) { s.logger = l.WithComponent(log.ComponentState) }
}

func New(st store.Store, opts ...Option) *State {
	s := &State{
		store:     st,
		loc:       time.Local,
		now:       time.Now,
		logger:    log.Discard(),
		observers: make(map[int]Observer),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Location returns the zone used for day computations.
func (s *State) Location() *time.Location { return s.loc }

// Subscribe registers an observer and returns a func that removes it.
func (s *State) Subscribe(o Observer) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

func (s *State) notify(ev Event) {
	ev.At = s.now()
	s.obsMu.Lock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	obs := make([]Observer, 0, len(ids))
	for _, id := range ids {
		obs = append(obs, s.observers[id])
	}
	s.obsMu.Unlock()

	for _, o := range obs {
		o(ev)
	}
}

// Load fetches both collections concurrently. An expense failure is
// returned and leaves the state untouched; a category failure is logged and
// yields an empty category list.
func (s *State) Load(ctx context.Context) error {
	var (
		expenses   []core.Expense
		categories []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpenses(gctx)
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = s.store.ListCategories(gctx)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to load categories, continuing without",
				log.FieldError, err.Error(),
				log.FieldOperation, log.OpLoad)
			categories = []core.Category{}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// Backing order is creation order; present newest first.
	slices.Reverse(expenses)

	s.mu.Lock()
	s.expenses = expenses
	s.categories = categories
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "State loaded",
		"expenses", len(expenses),
		"categories", len(categories))
	s.notify(Event{Type: StateLoaded})
	return nil
}

// NewExpenseInput is raw user input for a new expense.
type NewExpenseInput struct {
	Amount   string
	Category string
	Note     string
	Date     string // ISO date; empty means today
}

// AddExpense validates the input, persists it and prepends the stored
// record. Malformed amounts and dates are rejected before the store is
// called.
func (s *State) AddExpense(ctx context.Context, in NewExpenseInput) (core.Expense, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Expense{}, err
	}
	if date.IsEmpty() {
		date = core.DateOf(s.now().In(s.loc))
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = s.defaultCategory()
	}

	e, err := s.store.CreateExpense(ctx, core.NewExpense{
		Amount:   amount,
		Category: category,
		Note:     in.Note,
		Date:     date,
	})
	if err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	s.expenses = append([]core.Expense{e}, s.expenses...)
	s.mu.Unlock()

	s.notify(Event{Type: ExpenseCreated, ID: e.ID, Expense: &e})
	return e, nil
}

func (s *State) defaultCategory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.categories) > 0 {
		return s.categories[0].Name
	}
	return core.FallbackCategory
}

// DeleteExpense removes the expense from the store, then from memory.
func (s *State) DeleteExpense(ctx context.Context, id string) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.expenses = slices.DeleteFunc(s.expenses, func(e core.Expense) bool { return e.ID == id })
	s.mu.Unlock()

	s.notify(Event{Type: ExpenseDeleted, ID: id})
	return nil
}

// AddCategory trims the name, rejects blanks and appends the stored record.
func (s *State) AddCategory(ctx context.Context, name string) (core.Category, error) {
	name, err := core.NormalizeCategoryName(name)
	if err != nil {
		return core.Category{}, err
	}
	c, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	s.categories = append(s.categories, c)
	s.mu.Unlock()

	s.notify(Event{Type: CategoryCreated, ID: c.ID, Category: &c})
	return c, nil
}

// DeleteCategory removes the category. Expenses keep their category name.
func (s *State) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.categories = slices.DeleteFunc(s.categories, func(c core.Category) bool { return c.ID == id })
	s.mu.Unlock()

	s.notify(Event{Type: CategoryDeleted, ID: id})
	return nil
}

// Expenses returns a copy of the collection, newest first.
func (s *State) Expenses() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.expenses)
}

// Categories returns a copy of the category collection.
func (s *State) Categories() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

// SelectableCategories lists the names offered for new expenses. Names only
// present on existing expenses are not included.
func (s *State) SelectableCategories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.categories))
	for _, c := range s.categories {
		names = append(names, c.Name)
	}
	return names
}

// Filtered applies f to the expense collection.
func (s *State) Filtered(f core.Filter) []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Apply(s.expenses, f, s.loc)
}

// Dashboard aggregates the full, unfiltered collection.
func (s *State) Dashboard() core.Overview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Summarize(s.expenses, s.loc)
}
