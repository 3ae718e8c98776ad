// Package server exposes the planner over HTTP.
//
// The server holds one recipe database shared by all requests. Plan requests
// read-lock it and run a fresh engine each; recipe selection write-locks it.
// Routes:
//
//	GET  /healthz                  build info
//	GET  /metrics                  Prometheus metrics
//	GET  /v1/items                 items with their recipe counts
//	GET  /v1/recipes               all recipes in load order
//	GET  /v1/items/{name}/recipes  candidates for one item
//	PUT  /v1/items/{name}/recipe   select a candidate, body {"index": n}
//	POST /v1/plan                  expand a request
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/factoryflow/pkg/planner"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Options configures a [Server].
type Options struct {
	// RequestTimeout bounds plan and render work per request. Zero disables it.
	RequestTimeout time.Duration

	// Logger receives request logs. Nil means log.Default().
	Logger *log.Logger

	// Metrics is registered as the observability hooks and served on
	// /metrics. Nil creates a fresh set. The hooks are process-wide, so
	// engine, planner and cache events go to the most recently built
	// Server's Metrics; HTTP request metrics stay per server.
	Metrics *Metrics

	// OnSelect is called after a recipe selection succeeds, e.g. to persist
	// it. It runs under the database write lock.
	OnSelect func(item string, index int) error
}

// Server serves plans for one recipe database.
type Server struct {
	mu     sync.RWMutex
	db     *recipe.Database
	runner *planner.Runner

	logger   *log.Logger
	metrics  *Metrics
	timeout  time.Duration
	onSelect func(string, int) error
	validate *validator.Validate

	router chi.Router
}

// New builds a server over db. runner must not be nil.
func New(db *recipe.Database, runner *planner.Runner, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	s := &Server{
		db:       db,
		runner:   runner,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		timeout:  opts.RequestTimeout,
		onSelect: opts.OnSelect,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.metrics.Register()
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/items", s.handleItems)
		r.Get("/recipes", s.handleRecipes)
		r.Route("/items/{name}", func(r chi.Router) {
			r.Get("/recipes", s.handleItemRecipes)
			r.Put("/recipe", s.handleSelect)
		})
		r.Post("/plan", s.handlePlan)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.timeout)
}
