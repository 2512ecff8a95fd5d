// Package http serves the journal and dashboard pages and the JSON query
// surface.
package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"salesjournal/internal/cache"
	"salesjournal/internal/journal"
	applog "salesjournal/internal/log"
	"salesjournal/internal/middleware/ratelimit"
	"salesjournal/internal/middleware/security"
	"salesjournal/internal/middleware/trace"
	"salesjournal/internal/report"
	appweb "salesjournal/web"
)

const (
	defaultDashboardCacheTTL = 30 * time.Second
	dashboardCacheSize       = 32
	cacheCleanupInterval     = time.Minute
	staticMaxAge             = 3600
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	templates *template.Template
	journal   *journal.Service
	ready     Pinger
	logger    *applog.Logger
	events    *applog.StructuredLogger
	now       func() time.Time

	dashboardCache *cache.LRUCache[report.Dashboard]
	cacheManager   *cache.Manager

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime        time.Time
	salesRecorded int64
	salesDeleted  int64
	cacheHits     int64
	cacheMisses   int64
}

type config struct {
	ready        Pinger
	logger       *applog.Logger
	rateLimit    int
	dashboardTTL time.Duration
	now          func() time.Time
}

type Option func(*config)

// WithReadiness sets the dependency probed by /readyz.
func WithReadiness(p Pinger) Option {
	return func(c *config) { c.ready = p }
}

func WithLogger(l *applog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRateLimit caps write requests per client and minute.
func WithRateLimit(perMinute int) Option {
	return func(c *config) { c.rateLimit = perMinute }
}

// WithDashboardCacheTTL sets how long a dashboard snapshot is reused. Zero
// disables caching.
func WithDashboardCacheTTL(ttl time.Duration) Option {
	return func(c *config) { c.dashboardTTL = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// NewServer wires routes and middleware around svc.
func NewServer(addr string, svc *journal.Service, opts ...Option) *Server {
	cfg := config{dashboardTTL: defaultDashboardCacheTTL, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = applog.FromSlog(slog.Default(), applog.ComponentHTTP)
	}

	detector := security.NewDetector()
	s := &Server{
		journal:          svc,
		ready:            cfg.ready,
		logger:           cfg.logger,
		events:           applog.NewStructuredLogger(cfg.logger.WithComponent(applog.ComponentJournal)),
		now:              cfg.now,
		dashboardCache:   cache.NewLRUCache[report.Dashboard](dashboardCacheSize, cfg.dashboardTTL),
		cacheManager:     cache.NewManager(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.rateLimit}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(cfg.logger.Logger, detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Error("Failed to parse templates", "error", err)
	}
	s.templates = tmpl

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleDashboardPage)
	mux.HandleFunc("/ui/dashboard", s.handleDashboardPartial)
	mux.HandleFunc("/journal", s.handleJournalPage)
	mux.HandleFunc("/sales", s.handleCreateSale)
	mux.HandleFunc("/sales/delete", s.handleDeleteSale)
	mux.HandleFunc("/api/transactions", s.handleAPITransactions)
	mux.HandleFunc("/api/dashboard", s.handleAPIDashboard)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	if static, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		mux.Handle("/static/", security.StaticAssetMiddleware(staticMaxAge)(
			http.StripPrefix("/static/", http.FileServer(http.FS(static)))))
	}

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, s.rateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = applog.Middleware(s.logger, trace.GetRequestID)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background workers and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		s.journal.Notice().Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// ListenAndServe runs until Shutdown. A graceful close is not an error.
func (s *Server) ListenAndServe() error {
	err := s.Server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").Write(w)
}

// invalidateDashboard drops every cached snapshot after a write.
func (s *Server) invalidateDashboard() {
	s.dashboardCache.Clear()
}

// dashboard returns the snapshot for opts, building it at most once per
// cache key and TTL.
func (s *Server) dashboard(ctx context.Context, opts report.Options) (report.Dashboard, error) {
	now := s.now()
	key := strings.Join([]string{
		string(opts.Period),
		string(opts.TopSort),
		strconv.Itoa(opts.TopN),
		strconv.Itoa(opts.WindowDays),
		now.Format("2006-01-02"),
	}, "|")

	d, hit, err := s.dashboardCache.GetOrLoad(key, func() (report.Dashboard, error) {
		txs, err := s.journal.List(ctx)
		if err != nil {
			return report.Dashboard{}, err
		}
		return report.Build(txs, now, opts), nil
	})
	if err != nil {
		return report.Dashboard{}, err
	}
	if hit {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
	} else {
		atomic.AddInt64(&s.appMetrics.cacheMisses, 1)
	}
	return d, nil
}
