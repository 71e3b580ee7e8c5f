// Package store defines the document store adapter contract the catalog is
// built on, plus the portable query vocabulary shared by its implementations.
package store

import (
	"context"
	"time"

	"soundscape/model"
)

// MatchKind selects how a FieldMatch predicate is evaluated.
type MatchKind int

const (
	// MatchElem requires an array field to contain the single value.
	MatchElem MatchKind = iota
	// MatchElemIn requires an array field to share at least one value.
	MatchElemIn
	// MatchSubstring requires a case-insensitive substring match on a string
	// field, or on any element of an array field.
	MatchSubstring
	// MatchNotID requires the document id to differ from the value.
	MatchNotID
)

// FieldMatch is a single predicate over one document field.
type FieldMatch struct {
	Field  string
	Kind   MatchKind
	Values []string
}

// Filter combines predicates: every Must entry holds, and when Any is
// non-empty at least one of its entries holds. The zero Filter matches all
// documents.
type Filter struct {
	Must []FieldMatch
	Any  []FieldMatch
}

// Sort orders results by one field.
type Sort struct {
	Field string
	Desc  bool
}

// KeyKind selects the grouping key of a GroupSpec.
type KeyKind int

const (
	// KeyFieldValue groups by the unwound field value (one group per emotion
	// or tag occurrence value).
	KeyFieldValue KeyKind = iota
	// KeyGeoCell groups by the document location rounded to 0.1 degrees.
	KeyGeoCell
	// KeyDay groups by the calendar day of createdAt.
	KeyDay
)

// GroupSpec describes a grouped aggregation over the collection. Both store
// implementations evaluate it with the same in-process fold so the analytics
// semantics are identical regardless of backend.
type GroupSpec struct {
	// Unwind names the array field whose elements become group keys. Only
	// meaningful with KeyFieldValue.
	Unwind string
	// Key selects the grouping dimension.
	Key KeyKind
	// ExemplarCap bounds the number of sound names kept per group; 0 keeps
	// none.
	ExemplarCap int
	// CollectEmotions flattens the emotions of grouped documents into the
	// group.
	CollectEmotions bool
	// SortByCount orders groups by descending count; otherwise groups are
	// ordered by descending key date (timeline).
	SortByCount bool
	// Limit truncates the result after sorting; 0 means no truncation.
	Limit int
}

// GroupKey identifies one aggregation group. Only the fields relevant to the
// spec's KeyKind are set.
type GroupKey struct {
	Value string    `json:"value,omitempty"`
	Lat   float64   `json:"lat,omitempty"`
	Lng   float64   `json:"lng,omitempty"`
	Date  time.Time `json:"date,omitempty"`
}

// Group is one aggregation result row.
type Group struct {
	Key      GroupKey
	Count    int
	Examples []string
	Emotions []string
}

// Adapter is the persistence boundary of the catalog. All mutating calls are
// persisted immediately; failures surface as model.StorageError and a missing
// id as model.ErrNotFound where documented.
type Adapter interface {
	// Insert persists a new document and returns its assigned id.
	Insert(ctx context.Context, doc *model.SoundDocument) (string, error)
	// FindByID returns the document or model.ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.SoundDocument, error)
	// FindMany returns documents matching the filter, optionally sorted and
	// limited. limit <= 0 means no limit.
	FindMany(ctx context.Context, filter Filter, sort *Sort, limit int64) ([]*model.SoundDocument, error)
	// UpdateByID applies the patch to the document and reports whether any
	// field changed. A missing id reports false, not an error.
	UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (bool, error)
	// AddToSet appends value to the named array field unless already present,
	// and reports whether the document changed.
	AddToSet(ctx context.Context, id, field, value string) (bool, error)
	// DeleteByID removes the document and reports whether one was removed.
	DeleteByID(ctx context.Context, id string) (bool, error)
	// NearPoint returns documents within maxMeters of (lng, lat), annotated
	// with their great-circle distance and ordered by ascending distance.
	NearPoint(ctx context.Context, lng, lat, maxMeters float64, limit int64) ([]*model.SoundDocument, error)
	// Aggregate evaluates a grouped aggregation over the whole collection.
	Aggregate(ctx context.Context, spec GroupSpec) ([]Group, error)
}
