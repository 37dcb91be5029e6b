package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/skobkin/dsrelay/internal/actions"
	"github.com/skobkin/dsrelay/internal/command"
	"github.com/skobkin/dsrelay/internal/connectors"
)

const (
	maxBodyBytes    = 64 << 10
	shutdownTimeout = 5 * time.Second
)

type StatusProvider interface {
	Status() connectors.ConnectionStatus
}

type Dispatcher interface {
	SetRelay(ctx context.Context, index int, state command.State, periodMs int) error
	SetOutput(ctx context.Context, index int, state command.State) error
}

type ActionExecutor interface {
	Execute(ctx context.Context, actionID string, options map[string]any) error
}

// Server is the local HTTP control API.
type Server struct {
	status     StatusProvider
	dispatcher Dispatcher
	actions    ActionExecutor
	metrics    *Metrics
	logger     *slog.Logger
}

func NewServer(status StatusProvider, dispatcher Dispatcher, executor ActionExecutor, metrics *Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default().With("component", "http")
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	return &Server{
		status:     status,
		dispatcher: dispatcher,
		actions:    executor,
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/status", s.getStatus)
	r.Get("/actions", s.listActions)
	r.Post("/actions/{id}", s.executeAction)
	r.Post("/relays/{index}", s.setRelay)
	r.Post("/outputs/{index}", s.setOutput)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

// ListenAndServe serves on addr until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	}
}

type stateRequest struct {
	State  string `json:"state"`
	Period int    `json:"period"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Status())
}

func (s *Server) listActions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, actions.Definitions())
}

func (s *Server) executeAction(w http.ResponseWriter, r *http.Request) {
	options := map[string]any{}
	if err := decodeBody(r, &options); err != nil {
		s.writeError(w, err)

		return
	}
	s.respond(w, s.actions.Execute(r.Context(), chi.URLParam(r, "id"), options))
}

func (s *Server) setRelay(w http.ResponseWriter, r *http.Request) {
	index, req, state, err := parseStateRequest(r)
	if err != nil {
		s.writeError(w, err)

		return
	}
	s.respond(w, s.dispatcher.SetRelay(r.Context(), index, state, req.Period))
}

func (s *Server) setOutput(w http.ResponseWriter, r *http.Request) {
	index, _, state, err := parseStateRequest(r)
	if err != nil {
		s.writeError(w, err)

		return
	}
	s.respond(w, s.dispatcher.SetOutput(r.Context(), index, state))
}

func parseStateRequest(r *http.Request) (int, stateRequest, command.State, error) {
	rawIndex := chi.URLParam(r, "index")
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		return 0, stateRequest{}, "", &command.ValidationError{Field: "index", Value: rawIndex}
	}
	var req stateRequest
	if err := decodeBody(r, &req); err != nil {
		return 0, stateRequest{}, "", err
	}
	state, err := command.ParseState(req.State)
	if err != nil {
		return 0, stateRequest{}, "", err
	}

	return index, req, state, nil
}

func decodeBody(r *http.Request, dst any) error {
	if r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}

		return fmt.Errorf("%w: decode body: %v", command.ErrValidation, err)
	}

	return nil
}

func (s *Server) respond(w http.ResponseWriter, err error) {
	if err != nil {
		s.writeError(w, err)

		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, actions.ErrUnknownAction):
		status = http.StatusNotFound
	case errors.Is(err, command.ErrValidation):
		status = http.StatusBadRequest
	default:
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
