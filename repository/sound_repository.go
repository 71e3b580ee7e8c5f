package repository

import (
	"context"
	"time"

	"soundscape/logger"
	"soundscape/model"
	"soundscape/store"
)

// Caps applied by the fixed-shape list operations.
const (
	emotionListCap = 20
)

// CreateSoundInput carries the already-parsed fields of a creation request.
// Longitude and Latitude are pointers so a missing coordinate is
// distinguishable from zero.
type CreateSoundInput struct {
	Name            string
	Longitude       *float64
	Latitude        *float64
	SoundTypes      []string
	Emotions        []string
	Tags            []string
	AudioURL        string
	Author          string
	Description     string
	DurationSeconds int
	AudioQuality    string
}

// SoundRepository owns CRUD and lookup over sound documents.
type SoundRepository interface {
	Create(ctx context.Context, input CreateSoundInput) (string, error)
	GetByID(ctx context.Context, id string) (*model.SoundDocument, error)
	ListAll(ctx context.Context, limit int64) ([]*model.SoundDocument, error)
	ListByEmotion(ctx context.Context, emotion string) ([]*model.SoundDocument, error)
	Update(ctx context.Context, id string, patch map[string]interface{}) (bool, error)
	AddTag(ctx context.Context, id, tag string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type catalogRepository struct {
	store store.Adapter
}

// NewSoundRepository creates a SoundRepository over the given store adapter.
func NewSoundRepository(st store.Adapter) SoundRepository {
	return &catalogRepository{store: st}
}

// Create validates the input, applies defaults, stamps the creation time and
// persists the document, returning the new id.
func (r *catalogRepository) Create(ctx context.Context, input CreateSoundInput) (string, error) {
	if input.Name == "" {
		return "", model.NewValidationError("name", "required")
	}
	if input.Longitude == nil {
		return "", model.NewValidationError("longitude", "required")
	}
	if input.Latitude == nil {
		return "", model.NewValidationError("latitude", "required")
	}
	lng, lat := *input.Longitude, *input.Latitude
	if lng < -180 || lng > 180 {
		return "", model.NewValidationError("longitude", "must be between -180 and 180")
	}
	if lat < -90 || lat > 90 {
		return "", model.NewValidationError("latitude", "must be between -90 and 90")
	}
	if input.DurationSeconds < 0 {
		return "", model.NewValidationError("durationSeconds", "must not be negative")
	}

	quality := input.AudioQuality
	if !model.ValidQuality(quality) {
		quality = model.DefaultAudioQuality
	}

	doc := &model.SoundDocument{
		Name:            input.Name,
		Location:        model.NewGeoPoint(lng, lat),
		SoundTypes:      orEmpty(input.SoundTypes),
		Emotions:        orEmpty(input.Emotions),
		Tags:            orEmpty(input.Tags),
		AudioURL:        input.AudioURL,
		Author:          input.Author,
		CreatedAt:       time.Now().UTC(),
		Description:     input.Description,
		DurationSeconds: input.DurationSeconds,
		AudioQuality:    quality,
	}

	id, err := r.store.Insert(ctx, doc)
	if err != nil {
		return "", err
	}
	logger.Info("sound created", logger.String("id", id), logger.String("name", doc.Name))
	return id, nil
}

func (r *catalogRepository) GetByID(ctx context.Context, id string) (*model.SoundDocument, error) {
	return r.store.FindByID(ctx, id)
}

// ListAll returns up to limit documents, most recent first.
func (r *catalogRepository) ListAll(ctx context.Context, limit int64) ([]*model.SoundDocument, error) {
	return r.store.FindMany(ctx, store.Filter{}, &store.Sort{Field: "createdAt", Desc: true}, limit)
}

// ListByEmotion returns documents tagged with the emotion, capped at 20, in
// natural store order.
func (r *catalogRepository) ListByEmotion(ctx context.Context, emotion string) ([]*model.SoundDocument, error) {
	filter := store.Filter{Must: []store.FieldMatch{
		{Field: "emotions", Kind: store.MatchElem, Values: []string{emotion}},
	}}
	return r.store.FindMany(ctx, filter, nil, emotionListCap)
}

// Update applies a partial patch. Immutable fields are stripped and only
// known document fields pass through, so a patch can never clobber the id or
// creation time. A missing id reports false, not an error.
func (r *catalogRepository) Update(ctx context.Context, id string, patch map[string]interface{}) (bool, error) {
	cleaned := sanitizePatch(patch)
	if len(cleaned) == 0 {
		return false, nil
	}
	changed, err := r.store.UpdateByID(ctx, id, cleaned)
	if err != nil {
		return false, err
	}
	if changed {
		logger.Info("sound updated", logger.String("id", id))
	}
	return changed, nil
}

// AddTag appends a tag with set semantics: adding an existing tag is a no-op
// reported as unchanged.
func (r *catalogRepository) AddTag(ctx context.Context, id, tag string) (bool, error) {
	if tag == "" {
		return false, model.NewValidationError("tag", "required")
	}
	return r.store.AddToSet(ctx, id, "tags", tag)
}

// Delete removes the document. Removing the associated audio object is the
// caller's responsibility.
func (r *catalogRepository) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := r.store.DeleteByID(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		logger.Info("sound deleted", logger.String("id", id))
	}
	return deleted, nil
}

// Updatable document fields. Everything else in a patch is dropped.
var updatableFields = map[string]bool{
	"name":            true,
	"description":     true,
	"author":          true,
	"audioUrl":        true,
	"audioQuality":    true,
	"soundTypes":      true,
	"emotions":        true,
	"tags":            true,
	"durationSeconds": true,
}

// sanitizePatch strips immutable and unknown keys. A latitude/longitude pair
// is folded into a point value so the location can never be half-updated.
func sanitizePatch(patch map[string]interface{}) map[string]interface{} {
	cleaned := make(map[string]interface{}, len(patch))
	for key, value := range patch {
		if updatableFields[key] {
			cleaned[key] = value
		}
	}

	lng, lngOK := floatValue(patch["longitude"])
	lat, latOK := floatValue(patch["latitude"])
	if lngOK && latOK && lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90 {
		cleaned["location"] = model.NewGeoPoint(lng, lat)
	}
	return cleaned
}

func floatValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
