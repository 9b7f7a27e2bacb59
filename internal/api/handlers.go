package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"catalog-service/internal/domain"
	"catalog-service/internal/store"
)

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies of the HTTP endpoints.
type Handler struct {
	titles    store.TitleStore
	accounts  store.AccountStore
	favorites *store.FavoritesService
	pinger    Pinger
	logger    *slog.Logger
}

// NewHandler wires the endpoints to their stores. pinger may be nil when the
// backend has no connection to check.
func NewHandler(titles store.TitleStore, accounts store.AccountStore, favorites *store.FavoritesService, pinger Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		titles:    titles,
		accounts:  accounts,
		favorites: favorites,
		pinger:    pinger,
		logger:    logger,
	}
}

// --- Helpers ---

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, kind domain.FailureKind, message string) {
	h.respondJSON(w, r, statusFor(kind), domain.FailWith[any](&domain.Failure{Kind: kind, Message: message}))
}

// respond writes a store result with the given success status, or the status
// mapped from its failure kind.
func respond[T any](h *Handler, w http.ResponseWriter, r *http.Request, successStatus int, res domain.Result[T]) {
	if !res.Success {
		h.respondJSON(w, r, statusFor(res.Kind()), res)
		return
	}
	h.respondJSON(w, r, successStatus, res)
}

func statusFor(kind domain.FailureKind) int {
	switch kind {
	case domain.FailureValidation, domain.FailureInvalidID,
		domain.FailureAlreadyFavorited, domain.FailureNotFavorited:
		return http.StatusBadRequest
	case domain.FailureInvalidCredentials:
		return http.StatusUnauthorized
	case domain.FailureNotFound:
		return http.StatusNotFound
	case domain.FailureDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON request body into dst, answering 400 on failure.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		h.respondError(w, r, domain.FailureValidation, "invalid request payload")
		return false
	}
	return true
}

// --- Service endpoints ---

type healthStatus struct {
	Status string `json:"status"`
}

// Health answers 200 while the store responds to pings, 503 otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "Health check failed", slog.String("error", err.Error()))
			h.respondJSON(w, r, http.StatusServiceUnavailable, domain.FailWith[any](&domain.Failure{
				Kind:    domain.FailurePersistence,
				Message: "store unavailable",
			}))
			return
		}
	}
	h.respondJSON(w, r, http.StatusOK, domain.OK(healthStatus{Status: "ok"}))
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, domain.FailureNotFound, "route not found")
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusMethodNotAllowed, domain.FailWith[any](&domain.Failure{
		Kind:    domain.FailureValidation,
		Message: "method " + r.Method + " not allowed",
	}))
}
