// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/bingo/internal/adapters/repository"
	service "github.com/okian/bingo/internal/app"
	"github.com/okian/bingo/internal/domain/generator"
	"github.com/okian/bingo/internal/domain/model"
)

const defaultMaxListLimit = 100

// CatalogProvider exposes the loaded goal catalog.
type CatalogProvider interface {
	Catalog(ctx context.Context) (*model.Catalog, error)
}

// BoardDependencies generates boards and reads board history.
type BoardDependencies interface {
	Generate(ctx context.Context, req service.GenerateRequest) (model.Board, error)
	Board(ctx context.Context, id string) (model.Board, error)
	Boards(ctx context.Context, limit int) ([]model.Board, error)
}

// SessionDependencies manages sessions and their boards.
type SessionDependencies interface {
	CreateSession(ctx context.Context) (service.SessionInfo, error)
	Session(ctx context.Context, id string) (service.SessionInfo, error)
	DeleteSession(ctx context.Context, id string) error
	ResetSession(ctx context.Context, id string) (service.SessionInfo, error)
	GenerateInSession(ctx context.Context, id string, req service.GenerateRequest) (model.Board, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CatalogProvider
	BoardDependencies
	SessionDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	catalogHandler *CatalogHandler
	boardsHandler  *BoardsHandler
	sessionHandler *SessionsHandler
}

// NewServer creates a new API server with all handlers. maxListLimit caps
// GET /boards?limit; values below one use the default.
func NewServer(deps Dependencies, maxListLimit int) *Server {
	if maxListLimit < 1 {
		maxListLimit = defaultMaxListLimit
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		catalogHandler: NewCatalogHandler(deps),
		boardsHandler:  NewBoardsHandler(deps, maxListLimit),
		sessionHandler: NewSessionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /catalog", MetricsMiddleware(s.catalogHandler.HandleGetCatalog, "catalog"))

	mux.HandleFunc("POST /boards", MetricsMiddleware(s.boardsHandler.HandlePostBoard, "boards"))
	mux.HandleFunc("GET /boards", MetricsMiddleware(s.boardsHandler.HandleListBoards, "boards"))
	mux.HandleFunc("GET /boards/{id}", MetricsMiddleware(s.boardsHandler.HandleGetBoard, "board"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionHandler.HandleCreateSession, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.sessionHandler.HandleGetSession, "session"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionHandler.HandleDeleteSession, "session"))
	mux.HandleFunc("POST /sessions/{id}/boards", MetricsMiddleware(s.sessionHandler.HandlePostBoard, "session_boards"))
	mux.HandleFunc("POST /sessions/{id}/reset", MetricsMiddleware(s.sessionHandler.HandleResetSession, "session_reset"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeErrorDetails(w, status, code, err, nil)
}

func writeErrorDetails(w http.ResponseWriter, status int, code string, err error, details map[string]any) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	if rw, ok := w.(*responseWriter); ok {
		rw.errorCode = code
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Details: details})
}

// writeServiceError maps service and generator failures onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var (
		invalid *generator.InvalidConfigError
		short   *generator.InsufficientPoolError
	)
	switch {
	case errors.As(err, &short):
		writeErrorDetails(w, http.StatusUnprocessableEntity, service.KindInsufficientPool, Wrap(op, err), map[string]any{
			"bucket":    short.Bucket.String(),
			"requested": short.Requested,
			"shortfall": short.Shortfall,
		})
	case errors.As(err, &invalid):
		var details map[string]any
		if invalid.Field != "" {
			details = map[string]any{"field": invalid.Field}
		}
		writeErrorDetails(w, http.StatusBadRequest, service.KindInvalidConfig, Wrap(op, err), details)
	case errors.Is(err, generator.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, service.KindInvalidConfig, Wrap(op, err))
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, service.KindSessionNotFound, Wrap(op, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "board_not_found", Wrap(op, err))
	case errors.Is(err, service.ErrTooManySessions):
		writeError(w, http.StatusTooManyRequests, service.KindTooManySessions, Wrap(op, err))
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, service.KindNotStarted, Wrap(op, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, service.KindCanceled, Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
