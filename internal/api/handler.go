// internal/api/handler.go
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/RecandChat/CodeCompass/internal/crawl"
	"github.com/RecandChat/CodeCompass/internal/store"
)

// QuotaReporter exposes the GitHub quota state tracked by the rate limiter.
type QuotaReporter interface {
	Remaining() int
	Limit() int
	ResetTime() time.Time
}

// Handler is the container for API dependencies.
type Handler struct {
	status *crawl.Status
	shards *store.ShardStore
	quota  QuotaReporter
	repos  *store.PGStore
	logger *slog.Logger
}

// NewRouter creates and configures a chi router exposing the collector's
// operational surface. repos may be nil when no database is configured.
func NewRouter(status *crawl.Status, shards *store.ShardStore, quota QuotaReporter, repos *store.PGStore, logger *slog.Logger) http.Handler {
	h := &Handler{
		status: status,
		shards: shards,
		quota:  quota,
		repos:  repos,
		logger: logger,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", h.getStatus)
		r.Get("/shards", h.getShards)
		r.Get("/repos", h.getRepos)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getStatus reports run progress and the remaining API quota.
// GET /v1/status
func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"collector": h.status.Snapshot(),
	}
	if h.quota != nil {
		body["rate_limit"] = map[string]any{
			"remaining": h.quota.Remaining(),
			"limit":     h.quota.Limit(),
			"reset_at":  h.quota.ResetTime(),
		}
	}
	respondWithJSON(w, http.StatusOK, body)
}

// getShards lists the dataset shard files written so far.
// GET /v1/shards
func (h *Handler) getShards(w http.ResponseWriter, r *http.Request) {
	shards, err := h.shards.Shards()
	if err != nil {
		h.logger.Error("Failed to list shards", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, shards)
}

// getRepos returns stored records ordered by stars.
// GET /v1/repos?limit=N
func (h *Handler) getRepos(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		respondWithError(w, http.StatusNotFound, "No database sink configured")
		return
	}

	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		limitStr = "50"
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 1000 {
		respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter. Must be an integer between 1 and 1000.")
		return
	}

	records, err := h.repos.ListRepositories(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list repositories", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
