// Package api runs the out-of-scope query API task (spec.md §5 task 1:
// "HTTP API serving search queries (out of scope)"). It only proves
// out the task's liveness/readiness surface; its /search route answers
// 501 Not Implemented, since query planning itself is explicitly out of
// scope (spec.md Non-goals).
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/metadada/metamirror/internal/pgstore"
)

// Server is the minimal HTTP surface backing the supervisor's API task.
type Server struct {
	srv *http.Server
}

// New builds a Server bound to addr, checking mirror for readiness.
func New(addr string, mirror *pgstore.Pool) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(mirror))
	r.Get("/search", searchPlaceholder)

	return &Server{srv: &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutCtx)
	}()

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func readyz(mirror *pgstore.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mirror.Ping(r.Context()); err != nil {
			http.Error(w, "mirror db: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// searchPlaceholder marks where query planning against the search
// backend would live — named out of scope by the spec, kept as a
// stub so the task's route table is complete.
func searchPlaceholder(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "search query planning is out of scope", http.StatusNotImplemented)
}
