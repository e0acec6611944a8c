// Package local implements the store ports over a key-value backend holding
// two JSON arrays, one per record kind.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
	"expenses/internal/store"
)

const (
	expensesKey   = "expenses"
	categoriesKey = "categories"

	// DefaultLatency emulates asynchronous device storage.
	DefaultLatency = 300 * time.Millisecond
)

// Store is the device-resident implementation of store.Store. It owns the
// two collections for its lifetime; every mutation rewrites the full array.
type Store struct {
	kv      storage.KV
	latency time.Duration
	ids     *core.IDGenerator
	newCat  func() string
	logger  *log.Logger

	mu sync.Mutex
}

var _ store.Store = (*Store)(nil)

type Option func(*Store)

// WithLatency overrides DefaultLatency. Zero disables the delay.
func WithLatency(d time.Duration) Option {
	return func(s *Store) { s.latency = d }
}

func WithIDGenerator(g *core.IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// WithCategoryIDs replaces the category identifier source.
func WithCategoryIDs(f func() string) Option {
	return func(s *Store) { s.newCat = f }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStore) }
}

func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		latency: DefaultLatency,
		ids:     core.NewIDGenerator(),
		newCat:  core.NewCategoryID,
		logger:  log.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Close() error { return s.kv.Close() }

func (s *Store) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadExpenses(ctx)
}

func (s *Store) CreateExpense(ctx context.Context, in core.NewExpense) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.wait(ctx); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadExpenses(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	e := in.WithID(s.ids.Next())
	all = append(all, e)
	if err := s.save(ctx, expensesKey, all); err != nil {
		return core.Expense{}, err
	}
	s.logger.DebugContext(ctx, "Expense stored",
		log.FieldExpenseID, e.ID,
		log.FieldCount, len(all))
	return e, nil
}

// DeleteExpense removes the record. Unknown ids are a successful no-op and
// leave the stored array untouched.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadExpenses(ctx)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(slices.Clone(all), func(e core.Expense) bool { return e.ID == id })
	if len(kept) == len(all) {
		return nil
	}
	return s.save(ctx, expensesKey, kept)
}

// ListCategories returns the stored categories, seeding and persisting
// core.DefaultCategories the first time the collection is found empty.
// Read failures and a failed seed write are logged and yield an empty list.
func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cats, err := s.loadCategories(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Category read failed, returning empty list",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpList)
		return []core.Category{}, nil
	}
	if len(cats) > 0 {
		return cats, nil
	}

	cats = make([]core.Category, 0, len(core.DefaultCategories))
	for _, name := range core.DefaultCategories {
		cats = append(cats, core.Category{ID: s.newCat(), Name: name})
	}
	if err := s.save(ctx, categoriesKey, cats); err != nil {
		s.logger.WarnContext(ctx, "Failed to persist default categories",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpSeed)
		return []core.Category{}, nil
	}
	s.logger.InfoContext(ctx, "Seeded default categories",
		log.FieldOperation, log.OpSeed,
		log.FieldCount, len(cats))
	return cats, nil
}

func (s *Store) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	name, err := core.NormalizeCategoryName(name)
	if err != nil {
		return core.Category{}, err
	}
	if err := s.wait(ctx); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cats, err := s.loadCategories(ctx)
	if err != nil {
		return core.Category{}, err
	}
	c := core.Category{ID: s.newCat(), Name: name}
	if err := s.save(ctx, categoriesKey, append(cats, c)); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// DeleteCategory removes by id. Expenses naming the category are not touched.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cats, err := s.loadCategories(ctx)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(slices.Clone(cats), func(c core.Category) bool { return c.ID == id })
	if len(kept) == len(cats) {
		return nil
	}
	return s.save(ctx, categoriesKey, kept)
}

func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// loadExpenses reads the expense array and advances the id generator past
// every stored id. Caller holds s.mu.
func (s *Store) loadExpenses(ctx context.Context) ([]core.Expense, error) {
	var all []core.Expense
	if err := s.load(ctx, expensesKey, &all); err != nil {
		return nil, err
	}
	for _, e := range all {
		s.ids.Seed(e.ID)
	}
	if all == nil {
		all = []core.Expense{}
	}
	return all, nil
}

func (s *Store) loadCategories(ctx context.Context) ([]core.Category, error) {
	var cats []core.Category
	if err := s.load(ctx, categoriesKey, &cats); err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []core.Category{}
	}
	return cats, nil
}

func (s *Store) load(ctx context.Context, key string, dst any) error {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", store.ErrTransport, key, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("%w: write %s: %v", store.ErrTransport, key, err)
	}
	return nil
}
