package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"catalog-service/internal/domain"

	"github.com/gorilla/mux"
)

// CreateTitle handles POST /api/titles.
func (h *Handler) CreateTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP CreateTitle request received", slog.String("path", r.URL.Path))

	var input domain.TitleInput
	if !h.decodeBody(w, r, &input) {
		return
	}
	respond(h, w, r, http.StatusCreated, h.titles.Create(ctx, input))
}

// ListTitles handles GET /api/titles. Paging and filter parameters accept
// both the current names and the legacy ones (per_page, type, year).
func (h *Handler) ListTitles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query, err := parseTitleQuery(r.URL.Query())
	if err != nil {
		h.logger.WarnContext(ctx, "Invalid list query", slog.String("error", err.Error()))
		h.respondError(w, r, domain.FailureValidation, err.Error())
		return
	}
	h.logger.DebugContext(ctx, "Listing titles", slog.Int("page", query.Page), slog.Int("pageSize", query.PageSize))
	respond(h, w, r, http.StatusOK, h.titles.List(ctx, query))
}

// GetTitleStatistics handles GET /api/titles/statistics.
func (h *Handler) GetTitleStatistics(w http.ResponseWriter, r *http.Request) {
	respond(h, w, r, http.StatusOK, h.titles.Statistics(r.Context()))
}

// SearchTitles handles GET /api/titles/search?query=.
func (h *Handler) SearchTitles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := q.Get("query")
	if text == "" {
		text = q.Get("q")
	}
	respond(h, w, r, http.StatusOK, h.titles.Search(r.Context(), text))
}

func (h *Handler) GetTitle(w http.ResponseWriter, r *http.Request) {
	respond(h, w, r, http.StatusOK, h.titles.GetByID(r.Context(), mux.Vars(r)["titleId"]))
}

func (h *Handler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	titleID := mux.Vars(r)["titleId"]
	h.logger.InfoContext(ctx, "HTTP UpdateTitle request received", slog.String("titleID", titleID))

	var patch domain.TitlePatch
	if !h.decodeBody(w, r, &patch) {
		return
	}
	respond(h, w, r, http.StatusOK, h.titles.Update(ctx, titleID, patch))
}

func (h *Handler) DeleteTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	titleID := mux.Vars(r)["titleId"]
	h.logger.InfoContext(ctx, "HTTP DeleteTitle request received", slog.String("titleID", titleID))
	respond(h, w, r, http.StatusOK, h.titles.Delete(ctx, titleID))
}

type queryError struct {
	param, value string
}

func (e *queryError) Error() string {
	return "invalid value " + strconv.Quote(e.value) + " for query parameter " + e.param
}

// firstOf returns the first non-empty value among the given parameter names.
func firstOf(q url.Values, names ...string) (name, value string) {
	for _, n := range names {
		if v := strings.TrimSpace(q.Get(n)); v != "" {
			return n, v
		}
	}
	return "", ""
}

func intParam(q url.Values, names ...string) (*int, error) {
	name, raw := firstOf(q, names...)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &queryError{param: name, value: raw}
	}
	return &v, nil
}

func parseTitleQuery(q url.Values) (domain.TitleQuery, error) {
	var query domain.TitleQuery

	page, err := intParam(q, "page")
	if err != nil {
		return query, err
	}
	if page != nil {
		query.Page = *page
	}
	size, err := intParam(q, "page_size", "per_page")
	if err != nil {
		return query, err
	}
	if size != nil {
		query.PageSize = *size
	}

	if query.Filter.ReleaseYear, err = intParam(q, "release_year", "year"); err != nil {
		return query, err
	}
	if name, raw := firstOf(q, "min_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return query, &queryError{param: name, value: raw}
		}
		query.Filter.MinScore = &score
	}

	_, kind := firstOf(q, "kind", "type")
	query.Filter.Kind = domain.TitleKind(strings.ToLower(kind))
	_, query.Filter.Genre = firstOf(q, "genre")
	_, query.Filter.Search = firstOf(q, "search")
	return query, nil
}
