package api

import (
	"net/http"

	"catalog-service/internal/metrics"

	"github.com/gorilla/mux"
)

// NewRouter builds the HTTP routes of the catalog service.
func NewRouter(handler *Handler) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = RequestIDMiddleware(http.HandlerFunc(handler.notFound))
	router.MethodNotAllowedHandler = RequestIDMiddleware(http.HandlerFunc(handler.methodNotAllowed))
	router.Use(RequestIDMiddleware, handler.AccessLogMiddleware)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/health", handler.Health).Methods(http.MethodGet)

	// Fixed paths are registered before /{titleId} so they are not taken for ids.
	titlesRouter := apiRouter.PathPrefix("/titles").Subrouter()
	titlesRouter.HandleFunc("", handler.CreateTitle).Methods(http.MethodPost)
	titlesRouter.HandleFunc("", handler.ListTitles).Methods(http.MethodGet)
	titlesRouter.HandleFunc("/statistics", handler.GetTitleStatistics).Methods(http.MethodGet)
	titlesRouter.HandleFunc("/search", handler.SearchTitles).Methods(http.MethodGet)
	titlesRouter.HandleFunc("/{titleId}", handler.GetTitle).Methods(http.MethodGet)
	titlesRouter.HandleFunc("/{titleId}", handler.UpdateTitle).Methods(http.MethodPut)
	titlesRouter.HandleFunc("/{titleId}", handler.DeleteTitle).Methods(http.MethodDelete)

	accountsRouter := apiRouter.PathPrefix("/accounts").Subrouter()
	accountsRouter.HandleFunc("", handler.CreateAccount).Methods(http.MethodPost)
	accountsRouter.HandleFunc("", handler.ListAccounts).Methods(http.MethodGet)
	accountsRouter.HandleFunc("/login", handler.Login).Methods(http.MethodPost)
	accountsRouter.HandleFunc("/{accountId}", handler.GetAccount).Methods(http.MethodGet)
	accountsRouter.HandleFunc("/{accountId}", handler.UpdateAccount).Methods(http.MethodPut)
	accountsRouter.HandleFunc("/{accountId}", handler.DeleteAccount).Methods(http.MethodDelete)

	favoritesRouter := accountsRouter.PathPrefix("/{accountId}/favorites").Subrouter()
	favoritesRouter.HandleFunc("", handler.AddFavorite).Methods(http.MethodPost)
	favoritesRouter.HandleFunc("", handler.ListFavorites).Methods(http.MethodGet)
	favoritesRouter.HandleFunc("/ids", handler.ListFavoriteIDs).Methods(http.MethodGet)
	favoritesRouter.HandleFunc("/{titleId}", handler.CheckFavorite).Methods(http.MethodGet)
	favoritesRouter.HandleFunc("/{titleId}", handler.RemoveFavorite).Methods(http.MethodDelete)

	return router
}
