// Package recommend scores catalog documents against a reference document by
// emotion and tag overlap.
package recommend

import (
	"context"
	"sort"

	"soundscape/model"
	"soundscape/store"
)

// DefaultLimit caps recommendation lists when the caller does not supply one.
const DefaultLimit = 10

// ScoredSound is a recommendation candidate with its overlap score.
type ScoredSound struct {
	model.SoundDocument
	Score int `json:"similarityScore"`
}

// Engine produces similarity-based recommendations.
type Engine struct {
	store store.Adapter
}

// NewEngine creates a recommendation engine over the given store.
func NewEngine(st store.Adapter) *Engine {
	return &Engine{store: st}
}

// Recommend returns up to limit documents similar to the reference, scored
// by shared emotions plus shared tags. Candidates sharing neither dimension
// are excluded outright. Returns model.ErrNotFound when the reference id
// does not resolve.
func (e *Engine) Recommend(ctx context.Context, referenceID string, limit int) ([]ScoredSound, error) {
	ref, err := e.store.FindByID(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	// A reference with no emotions and no tags can overlap with nothing;
	// without this guard the empty OR-group below would match the whole
	// catalog.
	if len(ref.Emotions) == 0 && len(ref.Tags) == 0 {
		return []ScoredSound{}, nil
	}

	filter := store.Filter{
		Must: []store.FieldMatch{
			{Field: "_id", Kind: store.MatchNotID, Values: []string{referenceID}},
		},
	}
	if len(ref.Emotions) > 0 {
		filter.Any = append(filter.Any, store.FieldMatch{
			Field: "emotions", Kind: store.MatchElemIn, Values: ref.Emotions,
		})
	}
	if len(ref.Tags) > 0 {
		filter.Any = append(filter.Any, store.FieldMatch{
			Field: "tags", Kind: store.MatchElemIn, Values: ref.Tags,
		})
	}

	candidates, err := e.store.FindMany(ctx, filter, nil, 0)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredSound, 0, len(candidates))
	for _, doc := range candidates {
		score := overlap(doc.Emotions, ref.Emotions) + overlap(doc.Tags, ref.Tags)
		scored = append(scored, ScoredSound{SoundDocument: *doc, Score: score})
	}

	// Stable sort keeps natural store order between equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// overlap counts distinct shared elements between two slices.
func overlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	count := 0
	for _, v := range b {
		if set[v] {
			count++
			set[v] = false
		}
	}
	return count
}
