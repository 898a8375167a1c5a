// Package server is the HTTP side of rhinoview: a fixed /compute endpoint
// proxying to RhinoCompute, plus health, metrics and static files.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rhinoview/internal/compute"
	"rhinoview/internal/logging"
)

// Evaluator runs a request and returns the raw response body.
// *compute.Client implements it.
type Evaluator interface {
	EvaluateRaw(ctx context.Context, req *compute.EvaluationRequest) ([]byte, error)
}

type healthChecker interface {
	Healthy(ctx context.Context) error
}

// Input binds a query parameter to a definition input.
type Input struct {
	Query string
	Param string
}

type Server struct {
	eval      Evaluator
	def       *compute.Definition
	inputs    []Input
	collector *compute.Collector
	cache     Cache
	staticDir string
	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *metrics
}

type Option func(*Server)

// WithCache enables response caching.
func WithCache(c Cache) Option {
	return func(s *Server) {
		s.cache = c
	}
}

// WithStaticDir serves dir for every path not matched by a route.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server evaluating def with the query values named by inputs.
func New(eval Evaluator, def *compute.Definition, inputs []Input, opts ...Option) *Server {
	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = in.Param
	}
	s := &Server{
		eval:      eval,
		def:       def,
		inputs:    inputs,
		collector: compute.NewCollector(names...),
		logger:    logging.NewNop(),
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics(s.registry)
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/compute", s.handleCompute)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	if s.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.staticDir)))
	}
	return r
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.metrics.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	values := make(map[string]float64, len(s.inputs))
	for _, in := range s.inputs {
		raw := q.Get(in.Query)
		if raw == "" {
			http.Error(w, fmt.Sprintf("missing query parameter %q", in.Query), http.StatusBadRequest)
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, fmt.Sprintf("query parameter %q is not a number", in.Query), http.StatusBadRequest)
			return
		}
		values[in.Param] = v
	}

	req, err := s.collector.BuildRequest(s.def, values)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := ""
	if s.cache != nil {
		if key, err = RequestKey(req); err != nil {
			s.logger.Warn("compute: cache key", "error", err)
		} else if data, ok, err := s.cache.Get(r.Context(), key); err != nil {
			s.metrics.cache.WithLabelValues("error").Inc()
			s.logger.Warn("compute: cache read failed", "error", err)
		} else if ok {
			s.metrics.cache.WithLabelValues("hit").Inc()
			writeJSON(w, data, s.logger)
			return
		} else {
			s.metrics.cache.WithLabelValues("miss").Inc()
		}
	}

	data, err := s.eval.EvaluateRaw(r.Context(), req)
	if err != nil {
		var apiErr *compute.APIError
		switch {
		case errors.Is(err, context.Canceled):
			s.logger.Debug("compute: client went away")
			return
		case errors.As(err, &apiErr):
			http.Error(w, apiErr.Error(), http.StatusBadGateway)
		case errors.Is(err, compute.ErrServiceUnavailable), errors.Is(err, context.DeadlineExceeded):
			http.Error(w, "compute service unavailable", http.StatusBadGateway)
		default:
			http.Error(w, "compute failed", http.StatusInternalServerError)
		}
		s.logger.Error("compute failed", "error", err)
		return
	}

	if key != "" {
		if err := s.cache.Set(r.Context(), key, data); err != nil {
			s.logger.Warn("compute: cache write failed", "error", err)
		}
	}
	writeJSON(w, data, s.logger)
}

func writeJSON(w http.ResponseWriter, data []byte, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		logger.Debug("response write failed", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if hc, ok := s.eval.(healthChecker); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := hc.Healthy(ctx); err != nil {
			http.Error(w, "compute unreachable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok\n"))
}

// Run serves handler on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "error", err)
			return srv.Close()
		}
		return nil
	}
}
