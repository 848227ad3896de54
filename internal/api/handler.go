// internal/api/handler.go
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	custom_errors "chapter-ingest/internal/errors"
	"chapter-ingest/internal/model"
)

// Handler is the container for API dependencies.
type Handler struct {
	api    *API
	logger *slog.Logger
}

type publishRequest struct {
	Repos []model.RepoSelection `json:"repos"`
}

type unpublishRequest struct {
	IDs []string `json:"ids"`
}

type fetchRequest struct {
	LastFetchedAt *time.Time `json:"last_fetched_at"`
}

type markerRequest struct {
	FetchedAt *time.Time `json:"fetched_at"`
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(api *API, logger *slog.Logger) http.Handler {
	h := &Handler{
		api:    api,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/repos", h.getRepos)
		r.Get("/orgs/{org}/repos", h.getRepos)
		r.Get("/repos/{owner}/{name}/contributors", h.getContributors)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/published", h.getPublished)
			r.Post("/published", h.publish)
			r.Put("/published", h.reconcile)
			r.Post("/unpublish", h.unpublish)
		})

		r.Route("/tweets", func(r chi.Router) {
			r.Get("/", h.getTweets)
			r.Get("/count", h.getTweetCount)
			r.Post("/fetch/latest", h.fetchLatest)
			r.Post("/fetch/all", h.fetchAll)
		})

		r.Get("/markers/{name}", h.getMarker)
		r.Put("/markers/{name}", h.updateMarker)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getRepos lists an organization's repositories; /v1/repos uses the configured org.
// GET /v1/orgs/{org}/repos?contributors=true
func (h *Handler) getRepos(w http.ResponseWriter, r *http.Request) {
	withContributors := false
	if v := r.URL.Query().Get("contributors"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, &custom_errors.ValidationError{Field: "contributors", Reason: "must be a boolean"})
			return
		}
		withContributors = parsed
	}

	respondWithResult(w, h.api.FetchRepos(r.Context(), chi.URLParam(r, "org"), withContributors))
}

// getContributors lists one repository's contributors.
// GET /v1/repos/{owner}/{name}/contributors
func (h *Handler) getContributors(w http.ResponseWriter, r *http.Request) {
	fullName := fmt.Sprintf("%s/%s", chi.URLParam(r, "owner"), chi.URLParam(r, "name"))
	respondWithResult(w, h.api.FetchContributors(r.Context(), fullName))
}

// GET /v1/projects/published
func (h *Handler) getPublished(w http.ResponseWriter, r *http.Request) {
	respondWithResult(w, h.api.GetPublishedRepos(r.Context()))
}

// POST /v1/projects/published
func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respondWithResult(w, h.api.PublishRepos(r.Context(), req.Repos))
}

// PUT /v1/projects/published replaces the published set by diff.
func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respondWithResult(w, h.api.ReconcilePublished(r.Context(), req.Repos))
}

// POST /v1/projects/unpublish
func (h *Handler) unpublish(w http.ResponseWriter, r *http.Request) {
	var req unpublishRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respondWithResult(w, h.api.UnpublishRepos(r.Context(), req.IDs))
}

// GET /v1/tweets
func (h *Handler) getTweets(w http.ResponseWriter, r *http.Request) {
	respondWithResult(w, h.api.FetchTweetsFromDB(r.Context()))
}

// GET /v1/tweets/count
func (h *Handler) getTweetCount(w http.ResponseWriter, r *http.Request) {
	respondWithResult(w, h.api.FetchTweetCount(r.Context()))
}

// POST /v1/tweets/fetch/latest
func (h *Handler) fetchLatest(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	respondWithResult(w, h.api.HandleFetchLatestTweet(r.Context(), req.LastFetchedAt, FetchHooks{}))
}

// POST /v1/tweets/fetch/all
func (h *Handler) fetchAll(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	respondWithResult(w, h.api.HandleFetchAllTweets(r.Context(), req.LastFetchedAt, FetchHooks{}))
}

// GET /v1/markers/{name}
func (h *Handler) getMarker(w http.ResponseWriter, r *http.Request) {
	respondWithResult(w, h.api.HandleUpdateFetchedAt(r.Context(), chi.URLParam(r, "name"), nil))
}

// PUT /v1/markers/{name} with an empty body sets the marker to now.
func (h *Handler) updateMarker(w http.ResponseWriter, r *http.Request) {
	var req markerRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	var ts time.Time // zero is stamped with the service clock
	if req.FetchedAt != nil {
		ts = *req.FetchedAt
	}
	respondWithResult(w, h.api.HandleUpdateFetchedAt(r.Context(), chi.URLParam(r, "name"), &ts))
}
