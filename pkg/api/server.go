package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hollowtree/etcdmate/pkg/config"
	"github.com/hollowtree/etcdmate/pkg/history"
	"github.com/hollowtree/etcdmate/pkg/log"
	"github.com/hollowtree/etcdmate/pkg/metrics"
	"github.com/hollowtree/etcdmate/pkg/session"
)

// Server exposes the session's operations to a local frontend over
// HTTP/JSON. Serialization of store access is provided by the session
// itself; handlers stay thin.
type Server struct {
	session *session.Session
	hist    *history.Store
	cfgPath string
	http    *http.Server
	logger  zerolog.Logger
}

// NewServer creates the API server. cfgPath is where config updates are
// persisted; hist may be nil to disable the history endpoints.
func NewServer(sess *session.Session, hist *history.Store, cfgPath string) *Server {
	s := &Server{
		session: sess,
		hist:    hist,
		cfgPath: cfgPath,
		logger:  log.WithComponent("api"),
	}
	s.http = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/kv", func(r chi.Router) {
			r.Post("/list", s.handleList)
			r.Post("/keys", s.handleKeys)
			r.Post("/range", s.handleRange)
			r.Post("/put", s.handlePut)
			r.Post("/delete", s.handleDelete)
			r.Post("/at-revision", s.handleAtRevision)
			r.Post("/import", s.handleImport)
		})
		r.Route("/cluster", func(r chi.Router) {
			r.Get("/members", s.handleMembers)
			r.Get("/status", s.handleStatus)
		})
		r.Route("/connection", func(r chi.Router) {
			r.Post("/init", s.handleConnectionInit)
			r.Post("/test", s.handleConnectionTest)
		})
		r.Get("/config", s.handleConfigGet)
		r.Put("/config", s.handleConfigPut)
		r.Route("/history", func(r chi.Router) {
			r.Get("/{profile}", s.handleHistoryGet)
			r.Post("/{profile}", s.handleHistorySave)
		})
	})

	return r
}

// Start begins serving on addr and blocks until shutdown.
func (s *Server) Start(addr string) error {
	s.http.Addr = addr
	s.logger.Info().Str("addr", addr).Msg("API listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"connected": s.session.Connected(),
	})
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError flattens any failure into the single-message error shape
// the frontend renders; no structured codes cross this boundary.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// errStatus maps the local configuration errors to 4xx; everything
// else is a bad gateway, since the failure came from the store.
func errStatus(err error) int {
	switch {
	case errors.Is(err, config.ErrNoCurrentProfile), errors.Is(err, config.ErrProfileLocked):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
