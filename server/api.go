// Package server exposes the generation workflow over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lexcodex/uigen/workflow"
)

// Generator runs one orchestration turn. Satisfied by *workflow.Orchestrator.
type Generator interface {
	Run(ctx context.Context, sessionID, query string) (string, error)
}

// APIServer serves the generation endpoints.
type APIServer struct {
	Generator Generator
	Logger    *zap.Logger
	// TurnTimeout bounds a single generation turn. Zero means the default of
	// ten minutes; a turn spans many model and compiler round trips.
	TurnTimeout time.Duration
}

// GenerateRequest is the incoming payload for POST /generate.
type GenerateRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

// GenerateResponse is the response for POST /generate. Code may be present
// alongside Error when the repair budget ran out: the last candidate is
// returned even though it did not compile.
type GenerateResponse struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Serve starts listening on the provided address.
func (s *APIServer) Serve(addr string) error {
	return s.ServeContext(context.Background(), addr)
}

// ServeContext allows the caller to control shutdown via context cancellation.
func (s *APIServer) ServeContext(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:        addr,
		Handler:     s.Router(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 2 * time.Minute,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	if s.Logger != nil {
		s.Logger.Info("API listening", zap.String("addr", addr))
	}
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Router builds the chi router with all routes mounted.
func (s *APIServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Post("/generate", s.handleGenerate)
	return r
}

func (s *APIServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, GenerateResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Query = strings.TrimSpace(req.Query)
	if req.SessionID == "" || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, GenerateResponse{Error: "session_id and query are required"})
		return
	}

	timeout := s.TurnTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	code, err := s.Generator.Run(ctx, req.SessionID, req.Query)
	resp := GenerateResponse{SessionID: req.SessionID, Code: code}
	if err == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Error = err.Error()
	if s.Logger != nil {
		s.Logger.Warn("generation turn failed",
			zap.String("session", req.SessionID), zap.Error(err))
	}

	var exhausted *workflow.BudgetExhaustedError
	switch {
	case workflow.IsSelectionError(err):
		// The model violated the selection schema; the client may retry.
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.As(err, &exhausted):
		// The best artifact is returned even though it never compiled.
		resp.Code = exhausted.Artifact
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	default:
		resp.Code = ""
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
