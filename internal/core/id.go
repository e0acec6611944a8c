package core

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator hands out millisecond-timestamp identifiers that are strictly
// increasing for the lifetime of the generator, so the creation instant can
// be recovered with CreatedAt.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator returns a generator backed by the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// NewIDGeneratorWithClock is used by tests to pin the clock.
func NewIDGeneratorWithClock(now func() time.Time) *IDGenerator {
	return &IDGenerator{now: now}
}

// Seed makes the generator continue after an existing identifier so that
// reloading a persisted collection never reissues an id.
func (g *IDGenerator) Seed(id string) {
	t, err := CreatedAt(id)
	if err != nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if ms := t.UnixMilli(); ms > g.last {
		g.last = ms
	}
}

// Next returns a fresh identifier.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}

// NewCategoryID returns an opaque random identifier for a category.
func NewCategoryID() string {
	return uuid.NewString()
}
