package api

import (
	"log/slog"
	"net/http"

	"catalog-service/internal/domain"

	"github.com/gorilla/mux"
)

// CreateAccount handles POST /api/accounts.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP CreateAccount request received", slog.String("path", r.URL.Path))

	var input domain.AccountInput
	if !h.decodeBody(w, r, &input) {
		return
	}
	respond(h, w, r, http.StatusCreated, h.accounts.Create(ctx, input))
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	respond(h, w, r, http.StatusOK, h.accounts.ListAll(r.Context()))
}

// Login handles POST /api/accounts/login. It only verifies credentials and
// returns the account; no session or token is issued.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP Login request received", slog.String("path", r.URL.Path))

	var creds domain.Credentials
	if !h.decodeBody(w, r, &creds) {
		return
	}
	if creds.Email == "" || creds.Password == "" {
		h.respondError(w, r, domain.FailureValidation, "email and password are required")
		return
	}
	respond(h, w, r, http.StatusOK, h.accounts.VerifyCredentials(ctx, creds.Email, creds.Password))
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	respond(h, w, r, http.StatusOK, h.accounts.GetByID(r.Context(), mux.Vars(r)["accountId"]))
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := mux.Vars(r)["accountId"]
	h.logger.InfoContext(ctx, "HTTP UpdateAccount request received", slog.String("accountID", accountID))

	var patch domain.AccountPatch
	if !h.decodeBody(w, r, &patch) {
		return
	}
	respond(h, w, r, http.StatusOK, h.accounts.Update(ctx, accountID, patch))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := mux.Vars(r)["accountId"]
	h.logger.InfoContext(ctx, "HTTP DeleteAccount request received", slog.String("accountID", accountID))
	respond(h, w, r, http.StatusOK, h.accounts.Delete(ctx, accountID))
}

// AddFavorite handles POST /api/accounts/{accountId}/favorites with a
// {"title_id": ...} body.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := mux.Vars(r)["accountId"]

	var req domain.FavoriteRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.TitleID == "" {
		h.respondError(w, r, domain.FailureValidation, "title_id is required")
		return
	}
	respond(h, w, r, http.StatusCreated, h.accounts.AddFavorite(ctx, accountID, req.TitleID))
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	respond(h, w, r, http.StatusOK, h.accounts.RemoveFavorite(r.Context(), vars["accountId"], vars["titleId"]))
}

// ListFavorites returns the account's favorites as detailed titles.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	respond(h, w, r, http.StatusOK, h.favorites.HydrateFavorites(r.Context(), mux.Vars(r)["accountId"]))
}

func (h *Handler) ListFavoriteIDs(w http.ResponseWriter, r *http.Request) {
	respond(h, w, r, http.StatusOK, h.accounts.ListFavoriteIDs(r.Context(), mux.Vars(r)["accountId"]))
}

// CheckFavorite handles GET /api/accounts/{accountId}/favorites/{titleId}.
func (h *Handler) CheckFavorite(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res := h.accounts.IsFavorite(r.Context(), vars["accountId"], vars["titleId"])
	if !res.Success {
		respond(h, w, r, http.StatusOK, res)
		return
	}
	respond(h, w, r, http.StatusOK, domain.OK(domain.FavoriteStatus{IsFavorite: res.Data}))
}
