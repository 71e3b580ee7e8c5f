// Package search implements proximity and multi-field faceted search over
// the sound catalog.
package search

import (
	"context"

	"soundscape/model"
	"soundscape/store"
)

// DefaultLimit caps result sets when the caller does not supply a limit.
const DefaultLimit = 50

// Query holds the optional predicates of a faceted search. Zero-valued
// fields impose no constraint.
type Query struct {
	Text    string // matches name, description or any tag, case-insensitive
	Emotion string
	Tag     string
	Author  string // case-insensitive substring
	Limit   int64
}

// Engine answers search queries through the store adapter.
type Engine struct {
	store store.Adapter
}

// NewEngine creates a search engine over the given store.
func NewEngine(st store.Adapter) *Engine {
	return &Engine{store: st}
}

// FindNear returns documents within radiusKm of the point, ordered by
// ascending great-circle distance and annotated with distanceMeters.
func (e *Engine) FindNear(ctx context.Context, lat, lng, radiusKm float64, limit int64) ([]*model.SoundDocument, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return e.store.NearPoint(ctx, lng, lat, radiusKm*1000, limit)
}

// Search runs a conjunctive faceted search, most recent first. No match is
// an empty slice, never an error.
func (e *Engine) Search(ctx context.Context, q Query) ([]*model.SoundDocument, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var filter store.Filter
	if q.Text != "" {
		filter.Any = []store.FieldMatch{
			{Field: "name", Kind: store.MatchSubstring, Values: []string{q.Text}},
			{Field: "description", Kind: store.MatchSubstring, Values: []string{q.Text}},
			{Field: "tags", Kind: store.MatchSubstring, Values: []string{q.Text}},
		}
	}
	if q.Emotion != "" {
		filter.Must = append(filter.Must, store.FieldMatch{
			Field: "emotions", Kind: store.MatchElem, Values: []string{q.Emotion},
		})
	}
	if q.Tag != "" {
		filter.Must = append(filter.Must, store.FieldMatch{
			Field: "tags", Kind: store.MatchElem, Values: []string{q.Tag},
		})
	}
	if q.Author != "" {
		filter.Must = append(filter.Must, store.FieldMatch{
			Field: "author", Kind: store.MatchSubstring, Values: []string{q.Author},
		})
	}

	return e.store.FindMany(ctx, filter, &store.Sort{Field: "createdAt", Desc: true}, limit)
}
