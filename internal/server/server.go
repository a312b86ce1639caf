package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cognicore/deptdir/pkg/deptdir/cards"
	"github.com/cognicore/deptdir/pkg/deptdir/internalerr"
	"github.com/cognicore/deptdir/pkg/deptdir/query"
	"github.com/cognicore/deptdir/pkg/deptdir/store"
)

// RequestIDHeader carries the per-request id on requests and responses.
const RequestIDHeader = "X-Request-ID"

// Directory is the part of deptdir.Directory the server needs
type Directory interface {
	Refresh(ctx context.Context) (store.Snapshot, error)
	Search(ctx context.Context, req query.Request) ([]cards.Card, error)
	Department(ctx context.Context, id string) (cards.Card, error)
	Emails(ctx context.Context, id string) (string, error)
	Snapshot(ctx context.Context) (store.Snapshot, bool, error)
}

// Server exposes the directory over HTTP
type Server struct {
	dir    Directory
	logger *zap.Logger
	http   *http.Server
}

// New creates a server listening on addr
func New(addr string, dir Directory, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{dir: dir, logger: logger}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/departments", s.handleSearch)
	mux.HandleFunc("GET /api/departments/{id}", s.handleDepartment)
	mux.HandleFunc("GET /api/departments/{id}/emails", s.handleEmails)
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	return s.withRequestLog(mux)
}

// Serve listens until ctx is canceled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("listening", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := query.Request{
		Term:             q.Get("q"),
		StatenIslandOnly: boolParam(q.Get("staten_island")),
		EndTimeOnly:      boolParam(q.Get("end_time")),
	}

	results, err := s.dir.Search(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(results),
		"departments": results,
	})
}

func (s *Server) handleDepartment(w http.ResponseWriter, r *http.Request) {
	card, err := s.dir.Department(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleEmails(w http.ResponseWriter, r *http.Request) {
	text, err := s.dir.Emails(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok, err := s.dir.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		s.writeError(w, r, internalerr.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.dir.Refresh(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, internalerr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, internalerr.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, internalerr.ErrFetchFailed):
		status = http.StatusBadGateway
	case errors.Is(err, internalerr.ErrInvalidConfig), errors.Is(err, internalerr.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= 500 {
		s.logger.Error("request failed",
			zap.String("request_id", w.Header().Get(RequestIDHeader)),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func boolParam(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}
