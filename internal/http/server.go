// Package http serves the expense REST surface consumed by store/remote.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"expenses/internal/app"
	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/store"
)

const (
	listCacheKey  = "all"
	listCacheTTL  = 5 * time.Minute
	cacheSweep    = 10 * time.Minute
	readyzTimeout = 3 * time.Second
)

// Server is the REST service. Every mutation goes to the store first and
// invalidates the list caches afterwards.
type Server struct {
	http.Server

	store  store.Store
	loc    *time.Location
	logger *log.Logger
	events *log.StructuredLogger
	notify app.Observer
	now    func() time.Time

	origins   []string
	rateLimit ratelimit.Config
	limiter   *ratelimit.Limiter

	expensesCache   *cache.LRUCache[[]core.Expense]
	categoriesCache *cache.LRUCache[[]core.Category]
	caches          *cache.Manager

	shutdownOnce sync.Once
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithLocation sets the zone used to derive days from expense ids.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.loc = loc }
}

// WithObserver receives one event per successful mutation.
func WithObserver(o app.Observer) Option {
	return func(s *Server) { s.notify = o }
}

// WithAllowedOrigins restricts CORS; by default every origin is allowed.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.rateLimit = cfg }
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, st store.Store, opts ...Option) *Server {
	s := &Server{
		store:           st,
		loc:             time.Local,
		logger:          log.Discard(),
		now:             time.Now,
		rateLimit:       ratelimit.DefaultConfig(),
		expensesCache:   cache.NewLRUCache[[]core.Expense](4, listCacheTTL),
		categoriesCache: cache.NewLRUCache[[]core.Category](4, listCacheTTL),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	s.events = log.NewStructuredLogger(s.logger)
	s.limiter = ratelimit.NewLimiter(s.rateLimit)

	s.caches = cache.NewManager(s.logger)
	s.caches.Register(s.expensesCache)
	s.caches.Register(s.categoriesCache)
	s.caches.StartCleanup(cacheSweep)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.RequestLogger(s.logger))
	r.Use(s.corsMiddleware())
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.limiter.Middleware(http.MethodPost, http.MethodDelete))

	r.GET("/healthz", handleHealth)
	r.GET("/readyz", s.handleReady)

	r.GET("/expenses", s.handleListExpenses)
	r.POST("/expenses", s.handleCreateExpense)
	r.GET("/expenses/export", s.handleExport)
	r.DELETE("/expenses/:id", s.handleDeleteExpense)

	r.GET("/categories", s.handleListCategories)
	r.POST("/categories", s.handleCreateCategory)
	r.DELETE("/categories/:id", s.handleDeleteCategory)

	r.GET("/dashboard", s.handleDashboard)
	return r
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", log.RequestIDHeader},
		ExposeHeaders: []string{log.RequestIDHeader, "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(s.origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.origins
	}
	return cors.New(cfg)
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// handleReady reports ready once the store answers a read.
func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyzTimeout)
	defer cancel()
	if _, err := s.store.ListExpenses(ctx); err != nil {
		c.String(http.StatusServiceUnavailable, "store unavailable")
		return
	}
	c.String(http.StatusOK, "ready")
}

func (s *Server) emit(ev app.Event) {
	if s.notify == nil {
		return
	}
	ev.At = s.now()
	s.notify(ev)
}
