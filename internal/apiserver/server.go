// Package apiserver exposes the pool over HTTP: /api/v1/random,
// /health, /sources, and /pool/status, as spec.md §6 describes, plus
// /live and /readyz liveness/readiness probes for process supervisors.
package apiserver

import (
	"context"
	"net/http"
	"time"

	"openentropy/internal/entropy/conditioning"
	"openentropy/internal/entropy/pool"
	"openentropy/internal/health"
	"openentropy/internal/logging"
	"openentropy/internal/metrics"
)

// Server wires a Pool to the documented HTTP surface.
type Server struct {
	pool     *pool.Pool
	allowRaw bool
	log      *logging.Logger
	metrics  *metrics.OpenEntropyMetrics
	checker  *health.Checker

	httpServer *http.Server
}

// Config controls Server construction.
type Config struct {
	Addr     string
	AllowRaw bool
	Log      *logging.Logger
	Metrics  *metrics.OpenEntropyMetrics
}

// New builds a Server bound to p, not yet listening. It registers one
// health.Checker component per currently-registered source, each
// backed by pool.CollectOne, so /live and /readyz reflect live
// per-source collection health rather than only the pool's own
// bookkeeping.
func New(p *pool.Pool, cfg Config) *Server {
	checker := health.NewChecker()
	for _, info := range p.SourceInfos() {
		id := info.ID
		checker.RegisterFunc(id, false, health.SourceCollectCheck(func(ctx context.Context) error {
			return p.CollectOne(id)
		}))
	}
	checker.SetReady(true)

	s := &Server{
		pool:     p,
		allowRaw: cfg.AllowRaw,
		log:      cfg.Log,
		metrics:  cfg.Metrics,
		checker:  checker,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/random", s.handleRandom)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/sources", s.handleSources)
	mux.HandleFunc("/pool/status", s.handlePoolStatus)
	mux.Handle("/live", s.checker.LivenessHandler())
	mux.Handle("/readyz", s.checker.ReadinessHandler())
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving HTTP until the context is canceled or
// the listener errors.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) logf(r *http.Request, msg string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.WithComponent("apiserver").Debug(msg, append([]any{"path", r.URL.Path}, args...)...)
}

func conditioningLabel(m conditioning.Mode) string {
	return m.String()
}
