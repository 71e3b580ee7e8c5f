package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundscape/model"
	"soundscape/store/memstore"
)

func insert(t *testing.T, st *memstore.Store, name string, emotions, tags []string) string {
	t.Helper()
	id, err := st.Insert(context.Background(), &model.SoundDocument{
		Name:      name,
		Emotions:  emotions,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

func TestRecommendScoresByOverlap(t *testing.T) {
	st := memstore.New()
	refID := insert(t, st, "ref", []string{"relajante", "peaceful"}, []string{"naturaleza", "agua"})
	insert(t, st, "both dims", []string{"relajante"}, []string{"naturaleza", "agua"}) // score 3
	insert(t, st, "one emotion", []string{"peaceful"}, []string{"ciudad"})            // score 1
	insert(t, st, "two emotions", []string{"relajante", "peaceful"}, nil)             // score 2

	engine := NewEngine(st)
	results, err := engine.Recommend(context.Background(), refID, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "both dims", results[0].Name)
	assert.Equal(t, 3, results[0].Score)
	assert.Equal(t, "two emotions", results[1].Name)
	assert.Equal(t, 2, results[1].Score)
	assert.Equal(t, "one emotion", results[2].Name)
	assert.Equal(t, 1, results[2].Score)
}

func TestRecommendExcludesNonOverlapping(t *testing.T) {
	st := memstore.New()
	refID := insert(t, st, "ref", []string{"x"}, nil)
	insert(t, st, "unrelated", []string{"y"}, nil)

	engine := NewEngine(st)
	results, err := engine.Recommend(context.Background(), refID, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRecommendExcludesReference(t *testing.T) {
	st := memstore.New()
	refID := insert(t, st, "ref", []string{"x"}, []string{"t"})
	insert(t, st, "match", []string{"x"}, nil)

	engine := NewEngine(st)
	results, err := engine.Recommend(context.Background(), refID, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "match", results[0].Name)
}

func TestRecommendEmptyFacetsYieldNothing(t *testing.T) {
	st := memstore.New()
	refID := insert(t, st, "ref", nil, nil)
	insert(t, st, "anything", []string{"x"}, []string{"y"})

	engine := NewEngine(st)
	results, err := engine.Recommend(context.Background(), refID, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRecommendMissingReference(t *testing.T) {
	engine := NewEngine(memstore.New())

	_, err := engine.Recommend(context.Background(), "000000000000000000000000", 10)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRecommendLimitAndTies(t *testing.T) {
	st := memstore.New()
	refID := insert(t, st, "ref", []string{"x"}, nil)
	insert(t, st, "primero", []string{"x"}, nil)
	insert(t, st, "segundo", []string{"x"}, nil)
	insert(t, st, "tercero", []string{"x"}, nil)

	engine := NewEngine(st)
	results, err := engine.Recommend(context.Background(), refID, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Equal scores keep natural store order.
	assert.Equal(t, "primero", results[0].Name)
	assert.Equal(t, "segundo", results[1].Name)
}

func TestRecommendCountsDistinctOverlap(t *testing.T) {
	// Duplicate values in either sequence must not inflate the score.
	assert.Equal(t, 1, overlap([]string{"a", "a"}, []string{"a", "a", "a"}))
	assert.Equal(t, 2, overlap([]string{"a", "b", "c"}, []string{"b", "a"}))
	assert.Equal(t, 0, overlap(nil, []string{"a"}))
}
