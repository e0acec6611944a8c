package local

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"expenses/internal/core"
	"expenses/internal/storage"
	"expenses/internal/store"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, *storage.MemoryKV) {
	t.Helper()
	kv := storage.NewMemoryKV()
	return New(kv, append([]Option{WithLatency(0)}, opts...)...), kv
}

type failingKV struct{ storage.KV }

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingKV) Set(context.Context, string, []byte) error { return errors.New("disk gone") }

// readOnlyKV reads fine but refuses every write.
type readOnlyKV struct{ storage.KV }

func (readOnlyKV) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestCreateThenFilterScenario(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	in := core.NewExpense{Amount: core.NewMoney(50000), Category: "Food", Date: core.NewDate(2024, 1, 5)}
	created, err := s.CreateExpense(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned id")
	}

	all, err := s.ListExpenses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("want 1 expense, got %d", len(all))
	}
	got := all[0]
	if got.ID != created.ID || got.Category != "Food" || !got.Amount.Equal(core.NewMoney(50000)) || got.Date.String() != "2024-01-05" {
		t.Fatalf("unexpected record %+v", got)
	}

	if n := len(core.Apply(all, core.Filter{Category: "Food"}, time.UTC)); n != 1 {
		t.Fatalf("Food filter: want 1, got %d", n)
	}
	if n := len(core.Apply(all, core.Filter{Category: "Transport"}, time.UTC)); n != 0 {
		t.Fatalf("Transport filter: want 0, got %d", n)
	}
}

func TestDeleteUnknownExpenseIsNoop(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateExpense(ctx, core.NewExpense{Amount: core.NewMoney(1), Category: "Food"}); err != nil {
		t.Fatal(err)
	}
	before, _ := kv.Get(ctx, expensesKey)

	if err := s.DeleteExpense(ctx, "does-not-exist"); err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
	after, _ := kv.Get(ctx, expensesKey)
	if string(before) != string(after) {
		t.Fatalf("stored collection changed:\n%s\n%s", before, after)
	}
}

func TestDeleteExpense(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	a, _ := s.CreateExpense(ctx, core.NewExpense{Amount: core.NewMoney(1), Category: "Food"})
	b, _ := s.CreateExpense(ctx, core.NewExpense{Amount: core.NewMoney(2), Category: "Food"})
	if err := s.DeleteExpense(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	all, _ := s.ListExpenses(ctx)
	if len(all) != 1 || all[0].ID != b.ID {
		t.Fatalf("unexpected remaining %+v", all)
	}
}

func TestListCategoriesSeedsOnce(t *testing.T) {
	n := 0
	s, kv := newTestStore(t, WithCategoryIDs(func() string {
		n++
		return string(rune('a' + n - 1))
	}))
	ctx := context.Background()

	first, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 7 {
		t.Fatalf("want 7 seeded categories, got %d", len(first))
	}
	for i, c := range first {
		if c.Name != core.DefaultCategories[i] {
			t.Fatalf("case %d: want %q, got %q", i, core.DefaultCategories[i], c.Name)
		}
	}
	raw, err := kv.Get(ctx, categoriesKey)
	if err != nil {
		t.Fatalf("seed not persisted: %v", err)
	}
	var persisted []core.Category
	if err := json.Unmarshal(raw, &persisted); err != nil || len(persisted) != 7 {
		t.Fatalf("persisted %s (err %v)", raw, err)
	}

	second, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Fatalf("reseeded: %d ids generated", n)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("case %d: %+v != %+v", i, first[i], second[i])
		}
	}
}

func TestSeedSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.db")
	kv, err := storage.NewSQLiteKV(path)
	if err != nil {
		t.Fatal(err)
	}
	s := New(kv, WithLatency(0))
	first, err := s.ListCategories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	kv, err = storage.NewSQLiteKV(path)
	if err != nil {
		t.Fatal(err)
	}
	s = New(kv, WithLatency(0))
	defer s.Close()
	second, err := s.ListCategories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 7 || first[0].ID != second[0].ID {
		t.Fatalf("categories reseeded after reopen: %v vs %v", first, second)
	}
}

func TestCategoryCreateAndDeleteDoesNotCascade(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	c, err := s.CreateCategory(ctx, "  Travel ")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "Travel" || c.ID == "" {
		t.Fatalf("unexpected category %+v", c)
	}
	if _, err := s.CreateCategory(ctx, "   "); !errors.Is(err, core.ErrEmptyCategoryName) {
		t.Fatalf("blank name: want ErrEmptyCategoryName, got %v", err)
	}
	if _, err := s.CreateExpense(ctx, core.NewExpense{Amount: core.NewMoney(5), Category: "Travel"}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	exps, _ := s.ListExpenses(ctx)
	if len(exps) != 1 || exps[0].Category != "Travel" {
		t.Fatalf("expense category changed: %+v", exps)
	}
}

func TestIDsStayUniqueAcrossInstances(t *testing.T) {
	kv := storage.NewMemoryKV()
	fixed := time.UnixMilli(1_700_000_000_000)
	clock := func() time.Time { return fixed }

	s1 := New(kv, WithLatency(0), WithIDGenerator(core.NewIDGeneratorWithClock(clock)))
	a, _ := s1.CreateExpense(context.Background(), core.NewExpense{Amount: core.NewMoney(1)})

	s2 := New(kv, WithLatency(0), WithIDGenerator(core.NewIDGeneratorWithClock(clock)))
	b, err := s2.CreateExpense(context.Background(), core.NewExpense{Amount: core.NewMoney(1)})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Fatalf("duplicate id %s", a.ID)
	}
}

func TestRejectsNegativeAmount(t *testing.T) {
	s, kv := newTestStore(t)
	_, err := s.CreateExpense(context.Background(), core.NewExpense{Amount: core.NewMoney(-1)})
	if !errors.Is(err, core.ErrNegativeAmount) {
		t.Fatalf("want ErrNegativeAmount, got %v", err)
	}
	if _, err := kv.Get(context.Background(), expensesKey); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("nothing should be written, got %v", err)
	}
}

func TestLatencyHonoursCancellation(t *testing.T) {
	s := New(storage.NewMemoryKV(), WithLatency(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := s.ListExpenses(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func TestBackendFailures(t *testing.T) {
	s := New(failingKV{storage.NewMemoryKV()}, WithLatency(0))
	ctx := context.Background()

	if _, err := s.ListExpenses(ctx); !errors.Is(err, store.ErrTransport) {
		t.Fatalf("list expenses: want ErrTransport, got %v", err)
	}
	if err := s.DeleteExpense(ctx, "1"); !errors.Is(err, store.ErrTransport) {
		t.Fatalf("delete: want ErrTransport, got %v", err)
	}
	cats, err := s.ListCategories(ctx)
	if err != nil || len(cats) != 0 {
		t.Fatalf("categories should fail soft, got %v %v", cats, err)
	}

	ro := New(readOnlyKV{storage.NewMemoryKV()}, WithLatency(0))
	cats, err = ro.ListCategories(ctx)
	if err != nil || cats == nil || len(cats) != 0 {
		t.Fatalf("failed seed write should fail soft, got %v %v", cats, err)
	}
}
