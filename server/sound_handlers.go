package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/gorilla/mux"

	"soundscape/cache"
	"soundscape/config"
	"soundscape/core/search"
	"soundscape/logger"
	"soundscape/repository"
)

// AudioStore is the slice of the storage layer the handlers need; the tests
// substitute a stub for it.
type AudioStore interface {
	Put(ctx context.Context, reader io.Reader, size int64, filename string) (string, error)
	Remove(ctx context.Context, audioURL string) error
}

// SoundHandler serves the CRUD and lookup endpoints of the catalog.
type SoundHandler struct {
	repo   repository.SoundRepository
	search *search.Engine
	audio  AudioStore
	cache  *cache.AnalyticsCache
	cfg    *config.Config
}

// NewSoundHandler creates a SoundHandler. audio may be nil when uploads are
// disabled; cache may be nil.
func NewSoundHandler(
	repo repository.SoundRepository,
	searchEngine *search.Engine,
	audio AudioStore,
	analyticsCache *cache.AnalyticsCache,
	cfg *config.Config,
) *SoundHandler {
	return &SoundHandler{
		repo:   repo,
		search: searchEngine,
		audio:  audio,
		cache:  analyticsCache,
		cfg:    cfg,
	}
}

// GetSoundsHandler answers GET /api/sounds. With lat and lng it runs a
// proximity query (radius in km, default 10); with emotion it filters by
// emotion; otherwise it lists the most recent documents.
func (h *SoundHandler) GetSoundsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	latStr, lngStr := query.Get("lat"), query.Get("lng")
	if latStr != "" && lngStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr != nil || lngErr != nil {
			respondError(w, http.StatusBadRequest, "lat and lng must be numeric")
			return
		}
		radiusKm := 10.0
		if radiusStr := query.Get("radius"); radiusStr != "" {
			if parsed, err := strconv.ParseFloat(radiusStr, 64); err == nil && parsed > 0 {
				radiusKm = parsed
			}
		}
		sounds, err := h.search.FindNear(r.Context(), lat, lng, radiusKm, int64(queryInt(query.Get("limit"), search.DefaultLimit)))
		if err != nil {
			respondFailure(w, err)
			return
		}
		respondList(w, sounds, len(sounds))
		return
	}

	if emotion := query.Get("emotion"); emotion != "" {
		sounds, err := h.repo.ListByEmotion(r.Context(), emotion)
		if err != nil {
			respondFailure(w, err)
			return
		}
		respondList(w, sounds, len(sounds))
		return
	}

	sounds, err := h.repo.ListAll(r.Context(), int64(queryInt(query.Get("limit"), 100)))
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondList(w, sounds, len(sounds))
}

// GetSoundHandler answers GET /api/sounds/{id}.
func (h *SoundHandler) GetSoundHandler(w http.ResponseWriter, r *http.Request) {
	sound, err := h.repo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondData(w, http.StatusOK, sound)
}

// CreateSoundHandler answers POST /api/sounds. It expects a multipart form
// with an "audio" file plus the document fields; the audio object is stored
// before the catalog entry is created, and removed again if creation fails.
func (h *SoundHandler) CreateSoundHandler(w http.ResponseWriter, r *http.Request) {
	if h.audio == nil {
		respondError(w, http.StatusServiceUnavailable, "audio storage unavailable")
		return
	}

	maxBytes := h.cfg.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing 'audio' file")
		return
	}
	defer file.Close()

	if !h.cfg.ExtensionAllowed(path.Ext(header.Filename)) {
		respondError(w, http.StatusBadRequest, "audio file type not allowed")
		return
	}

	audioURL, err := h.audio.Put(r.Context(), file, header.Size, header.Filename)
	if err != nil {
		logger.Error("audio upload failed", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to store audio file")
		return
	}

	input := repository.CreateSoundInput{
		Name:            r.FormValue("name"),
		Longitude:       formFloat(r, "longitude"),
		Latitude:        formFloat(r, "latitude"),
		SoundTypes:      r.Form["soundTypes"],
		Emotions:        r.Form["emotions"],
		Tags:            r.Form["tags"],
		AudioURL:        audioURL,
		Author:          r.FormValue("author"),
		Description:     r.FormValue("description"),
		DurationSeconds: queryInt(r.FormValue("durationSeconds"), 0),
		AudioQuality:    r.FormValue("audioQuality"),
	}

	id, err := h.repo.Create(r.Context(), input)
	if err != nil {
		// The catalog entry never existed, so the stored object is orphaned.
		if removeErr := h.audio.Remove(r.Context(), audioURL); removeErr != nil {
			logger.Warn("failed to remove orphaned audio", logger.ErrorField(removeErr))
		}
		respondFailure(w, err)
		return
	}

	h.cache.Invalidate(r.Context())
	respondData(w, http.StatusCreated, map[string]string{
		"id":      id,
		"message": "sound created",
	})
}

// UpdateSoundHandler answers PUT /api/sounds/{id} with a JSON patch body.
func (h *SoundHandler) UpdateSoundHandler(w http.ResponseWriter, r *http.Request) {
	var patch map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil || len(patch) == 0 {
		respondError(w, http.StatusBadRequest, "no update data provided")
		return
	}

	changed, err := h.repo.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		respondFailure(w, err)
		return
	}
	if !changed {
		respondError(w, http.StatusNotFound, "sound not updated")
		return
	}

	h.cache.Invalidate(r.Context())
	respondMessage(w, "sound updated")
}

// AddTagHandler answers POST /api/sounds/{id}/tags with body {"tag": "..."}.
func (h *SoundHandler) AddTagHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tag string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Tag == "" {
		respondError(w, http.StatusBadRequest, "a tag must be provided")
		return
	}

	changed, err := h.repo.AddTag(r.Context(), mux.Vars(r)["id"], body.Tag)
	if err != nil {
		respondFailure(w, err)
		return
	}
	if !changed {
		respondError(w, http.StatusNotFound, "tag not added")
		return
	}

	h.cache.Invalidate(r.Context())
	respondMessage(w, "tag added")
}

// DeleteSoundHandler answers DELETE /api/sounds/{id}. The audio object is
// removed after the catalog entry, best effort.
func (h *SoundHandler) DeleteSoundHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	sound, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondFailure(w, err)
		return
	}

	deleted, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		respondFailure(w, err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "sound not found")
		return
	}

	if h.audio != nil && sound.AudioURL != "" {
		if err := h.audio.Remove(r.Context(), sound.AudioURL); err != nil {
			logger.Warn("failed to remove audio object",
				logger.String("id", id), logger.ErrorField(err))
		}
	}

	h.cache.Invalidate(r.Context())
	respondMessage(w, "sound deleted")
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if parsed, err := strconv.Atoi(raw); err == nil {
		return parsed
	}
	return fallback
}

// formFloat parses an optional numeric form value; nil marks it absent or
// malformed so validation can report it.
func formFloat(r *http.Request, field string) *float64 {
	raw := r.FormValue(field)
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
