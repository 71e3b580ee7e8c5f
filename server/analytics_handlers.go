package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"soundscape/core/analytics"
	"soundscape/core/recommend"
	"soundscape/core/search"
)

// AnalyticsHandler serves the aggregate, search and recommendation
// endpoints.
type AnalyticsHandler struct {
	analytics *analytics.Engine
	search    *search.Engine
	recommend *recommend.Engine
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(a *analytics.Engine, s *search.Engine, r *recommend.Engine) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: a, search: s, recommend: r}
}

// EmotionsHandler answers GET /api/analytics/emotions.
func (h *AnalyticsHandler) EmotionsHandler(w http.ResponseWriter, r *http.Request) {
	patterns, err := h.analytics.EmotionPatterns(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondData(w, http.StatusOK, patterns)
}

// TagsHandler answers GET /api/analytics/tags.
func (h *AnalyticsHandler) TagsHandler(w http.ResponseWriter, r *http.Request) {
	patterns, err := h.analytics.TagPatterns(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondData(w, http.StatusOK, patterns)
}

// LocationsHandler answers GET /api/analytics/locations.
func (h *AnalyticsHandler) LocationsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.LocationStats(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondData(w, http.StatusOK, stats)
}

// TimelineHandler answers GET /api/analytics/timeline.
func (h *AnalyticsHandler) TimelineHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.analytics.Timeline(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondData(w, http.StatusOK, entries)
}

// SearchHandler answers GET /api/analytics/search with optional q, emotion,
// tag, author and limit parameters.
func (h *AnalyticsHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	results, err := h.search.Search(r.Context(), search.Query{
		Text:    query.Get("q"),
		Emotion: query.Get("emotion"),
		Tag:     query.Get("tag"),
		Author:  query.Get("author"),
		Limit:   int64(queryInt(query.Get("limit"), search.DefaultLimit)),
	})
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondList(w, results, len(results))
}

// RecommendationsHandler answers GET /api/analytics/recommendations/{id}.
func (h *AnalyticsHandler) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	limit := recommend.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	results, err := h.recommend.Recommend(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondList(w, results, len(results))
}
