// Package memstore provides an in-memory store.Adapter. It backs the test
// suites and local development runs, and mirrors the Mongo store's observable
// behavior, including spherical distance for proximity queries.
package memstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"soundscape/model"
	"soundscape/store"
)

const earthRadiusMeters = 6371000

// Store is a map-backed store.Adapter. Natural store order is insertion
// order.
type Store struct {
	mu    sync.RWMutex
	docs  map[string]*model.SoundDocument
	order []string
}

// New creates an empty Store.
func New() *Store {
	return &Store{docs: make(map[string]*model.SoundDocument)}
}

func (s *Store) Insert(_ context.Context, doc *model.SoundDocument) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	id := doc.ID.Hex()
	stored := *doc
	s.docs[id] = &stored
	s.order = append(s.order, id)
	return id, nil
}

func (s *Store) FindByID(_ context.Context, id string) (*model.SoundDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (s *Store) FindMany(_ context.Context, filter store.Filter, sortBy *store.Sort, limit int64) ([]*model.SoundDocument, error) {
	s.mu.RLock()
	matched := make([]*model.SoundDocument, 0)
	for _, id := range s.order {
		doc := s.docs[id]
		if store.Matches(doc, filter) {
			copied := *doc
			matched = append(matched, &copied)
		}
	}
	s.mu.RUnlock()

	if sortBy != nil && sortBy.Field == "createdAt" {
		sort.SliceStable(matched, func(i, j int) bool {
			if sortBy.Desc {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		})
	}
	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Store) UpdateByID(_ context.Context, id string, patch map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return false, nil
	}
	return applyPatch(doc, patch), nil
}

func (s *Store) AddToSet(_ context.Context, id, field, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return false, nil
	}

	switch field {
	case "tags":
		if containsString(doc.Tags, value) {
			return false, nil
		}
		doc.Tags = append(doc.Tags, value)
	case "emotions":
		if containsString(doc.Emotions, value) {
			return false, nil
		}
		doc.Emotions = append(doc.Emotions, value)
	case "soundTypes":
		if containsString(doc.SoundTypes, value) {
			return false, nil
		}
		doc.SoundTypes = append(doc.SoundTypes, value)
	default:
		return false, nil
	}
	return true, nil
}

func (s *Store) DeleteByID(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return false, nil
	}
	delete(s.docs, id)
	for i, ordered := range s.order {
		if ordered == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *Store) NearPoint(_ context.Context, lng, lat, maxMeters float64, limit int64) ([]*model.SoundDocument, error) {
	s.mu.RLock()
	within := make([]*model.SoundDocument, 0)
	for _, id := range s.order {
		doc := s.docs[id]
		if len(doc.Location.Coordinates) < 2 {
			continue
		}
		d := haversineMeters(lat, lng, doc.Location.Latitude(), doc.Location.Longitude())
		if d <= maxMeters {
			copied := *doc
			copied.DistanceMeters = d
			within = append(within, &copied)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(within, func(i, j int) bool {
		return within[i].DistanceMeters < within[j].DistanceMeters
	})
	if limit > 0 && int64(len(within)) > limit {
		within = within[:limit]
	}
	return within, nil
}

func (s *Store) Aggregate(_ context.Context, spec store.GroupSpec) ([]store.Group, error) {
	s.mu.RLock()
	snapshot := make([]*model.SoundDocument, 0, len(s.order))
	for _, id := range s.order {
		copied := *s.docs[id]
		snapshot = append(snapshot, &copied)
	}
	s.mu.RUnlock()

	return store.FoldGroups(snapshot, spec), nil
}

// applyPatch mutates known document fields from the patch map and reports
// whether anything actually changed. Unknown keys are ignored, mirroring the
// repository's field whitelist.
func applyPatch(doc *model.SoundDocument, patch map[string]interface{}) bool {
	changed := false

	setString := func(dst *string, v interface{}) {
		if s, ok := v.(string); ok && *dst != s {
			*dst = s
			changed = true
		}
	}
	setStrings := func(dst *[]string, v interface{}) {
		vs, ok := toStringSlice(v)
		if ok && !equalStrings(*dst, vs) {
			*dst = vs
			changed = true
		}
	}

	for key, value := range patch {
		switch key {
		case "name":
			setString(&doc.Name, value)
		case "description":
			setString(&doc.Description, value)
		case "author":
			setString(&doc.Author, value)
		case "audioUrl":
			setString(&doc.AudioURL, value)
		case "audioQuality":
			setString(&doc.AudioQuality, value)
		case "soundTypes":
			setStrings(&doc.SoundTypes, value)
		case "emotions":
			setStrings(&doc.Emotions, value)
		case "tags":
			setStrings(&doc.Tags, value)
		case "durationSeconds":
			if n, ok := toInt(value); ok && doc.DurationSeconds != n {
				doc.DurationSeconds = n
				changed = true
			}
		case "location":
			if p, ok := value.(model.GeoPoint); ok {
				if doc.Location.Longitude() != p.Longitude() || doc.Location.Latitude() != p.Latitude() {
					doc.Location = p
					changed = true
				}
			}
		}
	}
	return changed
}

func toStringSlice(v interface{}) ([]string, bool) {
	switch vs := v.(type) {
	case []string:
		return vs, true
	case []interface{}:
		out := make([]string, 0, len(vs))
		for _, item := range vs {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// haversineMeters is the great-circle distance between two points.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	lat1, lng1, lat2, lng2 = rad(lat1), rad(lng1), rad(lat2), rad(lng2)

	dLat := lat2 - lat1
	dLng := lng2 - lng1
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}
