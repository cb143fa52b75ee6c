// ABOUTME: Server orchestrator wiring store, tracker, asset cache and HTTP routes
// ABOUTME: Manages listener setup, cache install, health endpoints and graceful shutdown

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/lifeos/internal/auth"
	"github.com/2389/lifeos/internal/config"
	"github.com/2389/lifeos/internal/metrics"
	"github.com/2389/lifeos/internal/offline"
	"github.com/2389/lifeos/internal/store"
	"github.com/2389/lifeos/internal/tracker"
)

// cacheInstallTimeout bounds the initial asset cache install.
const cacheInstallTimeout = 30 * time.Second

// Server serves the tracker API, report and cached static assets.
type Server struct {
	config      *config.Config
	store       store.Store
	tracker     *tracker.Tracker
	cache       *offline.Cache
	fetcher     offline.Fetcher
	metrics     *metrics.Metrics
	handler     http.Handler
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger

	ready atomic.Bool

	// now is replaceable for tests
	now func() time.Time
}

// Option customises a Server.
type Option func(*serverOptions)

type serverOptions struct {
	store   store.Store
	fetcher offline.Fetcher
	clock   func() time.Time
}

// WithStore uses s instead of opening the configured database.
func WithStore(s store.Store) Option {
	return func(o *serverOptions) { o.store = s }
}

// WithFetcher uses f instead of the configured asset origin.
func WithFetcher(f offline.Fetcher) Option {
	return func(o *serverOptions) { o.fetcher = f }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(o *serverOptions) { o.clock = now }
}

// OpenStore opens the key-value store selected by config.
func OpenStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := store.NewPostgresStore(ctx, cfg.Database.DSN, int(cfg.Database.QuotaBytes))
		if err != nil {
			return nil, fmt.Errorf("initializing store: %w", err)
		}
		return s, nil
	default:
		s, err := store.NewSQLiteStore(cfg.Database.Path, store.WithQuota(int(cfg.Database.QuotaBytes)))
		if err != nil {
			return nil, fmt.Errorf("initializing store: %w", err)
		}
		return s, nil
	}
}

// initFetcher selects the asset fetcher: an upstream origin, a local
// directory, or none.
func initFetcher(cfg config.CacheConfig) (offline.Fetcher, error) {
	switch {
	case cfg.Origin != "":
		return offline.NewOriginFetcher(cfg.Origin, nil)
	case cfg.Dir != "":
		if _, err := os.Stat(cfg.Dir); err != nil {
			return nil, fmt.Errorf("asset dir: %w", err)
		}
		return offline.NewFSFetcher(os.DirFS(cfg.Dir)), nil
	default:
		return nil, nil
	}
}

// New creates a Server from config. The tracker is not loaded until Run.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
	if o.clock != nil {
		s.now = o.clock
	}

	if cfg.Metrics.Enabled {
		s.metrics = metrics.New()
	}

	s.store = o.store
	if s.store == nil {
		st, err := OpenStore(cfg)
		if err != nil {
			return nil, err
		}
		s.store = st
	}

	var recorder tracker.Recorder
	if s.metrics != nil {
		recorder = s.metrics
	}
	s.tracker = tracker.New(tracker.Config{
		Store:    s.store,
		Logger:   logger,
		Recorder: recorder,
		Clock:    s.now,
	})

	s.fetcher = o.fetcher
	if s.fetcher == nil {
		f, err := initFetcher(cfg.Cache)
		if err != nil {
			_ = s.store.Close()
			return nil, fmt.Errorf("initializing asset fetcher: %w", err)
		}
		s.fetcher = f
	}
	s.cache = offline.NewStorage().Open(cfg.Cache.Name)

	handler, err := s.routes()
	if err != nil {
		_ = s.store.Close()
		return nil, err
	}
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Tracker returns the state store.
func (s *Server) Tracker() *tracker.Tracker {
	return s.tracker
}

// routes builds the root mux.
func (s *Server) routes() (http.Handler, error) {
	api := http.NewServeMux()
	s.handle(api, "GET /api/snapshot", s.handleGetSnapshot)
	s.handle(api, "PUT /api/snapshot", s.handlePutSnapshot)
	s.handle(api, "GET /api/schema", s.handleSchema)
	s.handle(api, "GET /api/completion", s.handleCompletion)
	s.handle(api, "GET /api/blueprint", s.handleBlueprint)
	s.handle(api, "PUT /api/daily", s.handleDaily)
	s.handle(api, "PUT /api/weekly/{day}", s.handleWeekly)
	s.handle(api, "PUT /api/monthly", s.handleMonthly)
	s.handle(api, "POST /api/reading", s.handleAddBook)
	s.handle(api, "POST /api/people", s.handleAddPerson)
	s.handle(api, "GET /report", s.handleReportHTML)
	s.handle(api, "GET /report.md", s.handleReportMarkdown)

	var protected http.Handler = api
	if s.config.Auth.JWTSecret != "" {
		verifier, err := auth.NewJWTVerifier([]byte(s.config.Auth.JWTSecret))
		if err != nil {
			return nil, fmt.Errorf("creating HTTP JWT verifier: %w", err)
		}
		protected = auth.HTTPAuthMiddleware(verifier, s.logger.With("component", "auth"))(api)
		s.logger.Info("HTTP auth middleware enabled")
	} else {
		s.logger.Warn("HTTP auth disabled - no jwt_secret configured")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/ready", s.handleReady)
	mux.Handle("/api/", protected)
	mux.Handle("/report", protected)
	mux.Handle("/report.md", protected)

	if s.metrics != nil {
		mux.Handle("GET "+s.config.Metrics.Path, s.metrics.Handler())
	}

	var onLookup func(bool)
	if s.metrics != nil {
		onLookup = s.metrics.ObserveCacheLookup
	}
	mux.Handle("/", offline.NewHandler(offline.HandlerConfig{
		Cache:    s.cache,
		Fetcher:  s.fetcher,
		Logger:   s.logger.With("component", "offline"),
		OnLookup: onLookup,
	}))

	return mux, nil
}

// handle registers h under pattern, counting responses when metrics are enabled.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	if s.metrics == nil {
		mux.HandleFunc(pattern, h)
		return
	}
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.ObserveRequest(pattern, rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// installCache fetches the configured asset list into the cache. Failure
// leaves the cache empty and requests fall through to the network.
func (s *Server) installCache(ctx context.Context) {
	if s.fetcher == nil {
		s.logger.Info("no asset origin configured, static cache disabled")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cacheInstallTimeout)
	defer cancel()

	if err := s.cache.AddAll(ctx, s.fetcher, s.config.Cache.Assets); err != nil {
		s.logger.Error("asset cache install failed", "cache", s.cache.Name(), "error", err)
		return
	}
	s.logger.Info("asset cache installed", "cache", s.cache.Name(), "assets", len(s.config.Cache.Assets))
}

// setupTCPListener creates the standard TCP listener.
func (s *Server) setupTCPListener() (net.Listener, error) {
	s.logger.Info("starting lifeos", "http_addr", s.config.Server.HTTPAddr)

	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// setupListener creates the listener based on configuration (Tailscale or TCP).
func (s *Server) setupListener(ctx context.Context) (net.Listener, error) {
	if s.config.Tailscale.Enabled {
		return s.setupTailscaleListener(ctx)
	}
	return s.setupTCPListener()
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func resolveTailscaleAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set auth_key in config or TS_AUTHKEY environment variable")
	}
	return authKey, nil
}

// setupTailscaleListener starts a tsnet node and listens on its port 80.
func (s *Server) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := s.config.Tailscale

	if err := os.MkdirAll(tsCfg.StateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := resolveTailscaleAuthKey(tsCfg.AuthKey)
	if err != nil {
		return nil, err
	}

	s.tsnetServer = &tsnet.Server{
		Hostname:  tsCfg.Hostname,
		Dir:       tsCfg.StateDir,
		Ephemeral: tsCfg.Ephemeral,
		AuthKey:   authKey,
	}

	s.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", tsCfg.StateDir, "ephemeral", tsCfg.Ephemeral)
	status, err := s.tsnetServer.Up(ctx)
	if err != nil {
		_ = s.tsnetServer.Close()
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	s.logTailscaleStatus(tsCfg.Hostname, status)

	ln, err := s.tsnetServer.Listen("tcp", ":80")
	if err != nil {
		_ = s.tsnetServer.Close()
		return nil, fmt.Errorf("listening on tailscale HTTP port: %w", err)
	}
	return ln, nil
}

// logTailscaleStatus logs info about the tailscale node status.
func (s *Server) logTailscaleStatus(hostname string, status *ipnstate.Status) {
	var tsAddr, dnsName string
	if len(status.TailscaleIPs) > 0 {
		tsAddr = status.TailscaleIPs[0].String()
	} else {
		s.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if status.Self != nil {
		dnsName = status.Self.DNSName
	}
	s.logger.Info("tailscale node ready", "hostname", hostname, "tailscale_ip", tsAddr, "dns_name", dnsName)
}

// Run loads the tracker, installs the asset cache and serves HTTP until ctx
// is canceled. A snapshot that fails to load aborts Run before anything is
// served, so a corrupt document is never overwritten.
// Returns nil on graceful shutdown, or an error if a server fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.tracker.Load(ctx); err != nil {
		_ = s.store.Close()
		return fmt.Errorf("loading tracker: %w", err)
	}
	s.ready.Store(true)

	ln, err := s.setupListener(ctx)
	if err != nil {
		_ = s.store.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.installCache(gctx)
		return nil
	})

	g.Go(func() error {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			s.logger.Info("context canceled, initiating shutdown")
		}
		return s.gracefulShutdown()
	})

	return g.Wait()
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() since the run context is already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down lifeos")
	s.ready.Store(false)

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))

	if s.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", s.tsnetServer.Close())
	}
	errs = appendCloseError(errs, "store close", s.store.Close())

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once the snapshot is loaded and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("snapshot not loaded"))
		return
	}
	if err := s.store.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "store unavailable: %v", err)
		return
	}
	cached := len(s.cache.Keys())
	entry, err := s.tracker.Stored(r.Context())
	switch {
	case errors.Is(err, store.ErrNotFound):
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "ready (no snapshot stored, %d cached assets)", cached)
	case err != nil:
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "store unavailable: %v", err)
	default:
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "ready (snapshot %d bytes, updated %s, %d cached assets)",
			entry.Size, entry.UpdatedAt.UTC().Format(time.RFC3339), cached)
	}
}
