package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestAllowWindow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	defer rl.Stop()
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	for i, want := range []bool{true, true, false} {
		if got := rl.Allow("1.2.3.4"); got != want {
			t.Fatalf("case %d: Allow = %v, want %v", i, got, want)
		}
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("clients must be counted separately")
	}
	now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("window should reset after a minute")
	}
	if m := rl.GetMetrics(); m.Rejected != 1 || m.ClientCount != 2 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }
	rl.Allow("a")
	now = now.Add(11 * time.Minute)
	rl.cleanupStaleEntries()
	if rl.GetMetrics().ClientCount != 0 {
		t.Fatal("stale client not removed")
	}
}

func TestMiddlewareOnlyLimitsListedMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	r := gin.New()
	r.Use(rl.Middleware(http.MethodPost))
	r.Any("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(method string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, "/x", nil))
		return w.Code
	}

	if code := do(http.MethodPost); code != http.StatusOK {
		t.Fatalf("first POST = %d", code)
	}
	if code := do(http.MethodPost); code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", code)
	}
	for i := 0; i < 3; i++ {
		if code := do(http.MethodGet); code != http.StatusOK {
			t.Fatalf("GET %d = %d", i, code)
		}
	}
}
