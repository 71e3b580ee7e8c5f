// Package analytics computes aggregate rollups over the sound catalog:
// emotion and tag histograms, coarse location cells and a per-day timeline.
package analytics

import (
	"context"
	"time"

	"soundscape/cache"
	"soundscape/store"
)

// Result caps per rollup.
const (
	emotionLimit  = 10
	tagLimit      = 15
	locationLimit = 20
	timelineLimit = 30
	exemplarCap   = 10
	cellNameCap   = 3
)

// EmotionPattern is one emotion histogram bucket.
type EmotionPattern struct {
	Emotion       string   `json:"emotion"`
	Count         int      `json:"count"`
	ExampleSounds []string `json:"exampleSounds"`
}

// TagPattern is one tag histogram bucket.
type TagPattern struct {
	Tag    string   `json:"tag"`
	Count  int      `json:"count"`
	Sounds []string `json:"sounds"`
}

// LocationStat is one ~11km grid cell with its combined emotions and a few
// example sound names.
type LocationStat struct {
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
	Count          int      `json:"count"`
	CommonEmotions []string `json:"commonEmotions"`
	Names          []string `json:"names"`
}

// TimelineEntry is one calendar day of activity.
type TimelineEntry struct {
	Date     time.Time `json:"date"`
	Count    int       `json:"count"`
	Emotions []string  `json:"emotions"`
}

// Engine answers analytics queries. Results are cached in Redis when a cache
// is configured; all rollups are read-only and tolerate an empty catalog.
type Engine struct {
	store store.Adapter
	cache *cache.AnalyticsCache
}

// NewEngine creates an analytics engine. cache may be nil.
func NewEngine(st store.Adapter, c *cache.AnalyticsCache) *Engine {
	return &Engine{store: st, cache: c}
}

// EmotionPatterns returns the top 10 emotions by occurrence count with up to
// 10 example sound names each.
func (e *Engine) EmotionPatterns(ctx context.Context) ([]EmotionPattern, error) {
	var cached []EmotionPattern
	if e.cache.Get(ctx, cache.KeyEmotionPatterns, &cached) {
		return cached, nil
	}

	groups, err := e.store.Aggregate(ctx, store.GroupSpec{
		Unwind:      "emotions",
		Key:         store.KeyFieldValue,
		ExemplarCap: exemplarCap,
		SortByCount: true,
		Limit:       emotionLimit,
	})
	if err != nil {
		return nil, err
	}

	patterns := make([]EmotionPattern, 0, len(groups))
	for _, g := range groups {
		patterns = append(patterns, EmotionPattern{
			Emotion:       g.Key.Value,
			Count:         g.Count,
			ExampleSounds: orEmpty(g.Examples),
		})
	}
	e.cache.Set(ctx, cache.KeyEmotionPatterns, patterns)
	return patterns, nil
}

// TagPatterns returns the top 15 tags by occurrence count.
func (e *Engine) TagPatterns(ctx context.Context) ([]TagPattern, error) {
	var cached []TagPattern
	if e.cache.Get(ctx, cache.KeyTagPatterns, &cached) {
		return cached, nil
	}

	groups, err := e.store.Aggregate(ctx, store.GroupSpec{
		Unwind:      "tags",
		Key:         store.KeyFieldValue,
		ExemplarCap: exemplarCap,
		SortByCount: true,
		Limit:       tagLimit,
	})
	if err != nil {
		return nil, err
	}

	patterns := make([]TagPattern, 0, len(groups))
	for _, g := range groups {
		patterns = append(patterns, TagPattern{
			Tag:    g.Key.Value,
			Count:  g.Count,
			Sounds: orEmpty(g.Examples),
		})
	}
	e.cache.Set(ctx, cache.KeyTagPatterns, patterns)
	return patterns, nil
}

// LocationStats buckets documents into 0.1-degree grid cells, a coarse
// heat map that avoids true spatial clustering. Top 20 cells by count.
func (e *Engine) LocationStats(ctx context.Context) ([]LocationStat, error) {
	var cached []LocationStat
	if e.cache.Get(ctx, cache.KeyLocationStats, &cached) {
		return cached, nil
	}

	groups, err := e.store.Aggregate(ctx, store.GroupSpec{
		Key:             store.KeyGeoCell,
		ExemplarCap:     cellNameCap,
		CollectEmotions: true,
		SortByCount:     true,
		Limit:           locationLimit,
	})
	if err != nil {
		return nil, err
	}

	stats := make([]LocationStat, 0, len(groups))
	for _, g := range groups {
		stats = append(stats, LocationStat{
			Lat:            g.Key.Lat,
			Lng:            g.Key.Lng,
			Count:          g.Count,
			CommonEmotions: orEmpty(g.Emotions),
			Names:          orEmpty(g.Examples),
		})
	}
	e.cache.Set(ctx, cache.KeyLocationStats, stats)
	return stats, nil
}

// Timeline groups documents by calendar day of creation, most recent 30 days
// with activity first.
func (e *Engine) Timeline(ctx context.Context) ([]TimelineEntry, error) {
	var cached []TimelineEntry
	if e.cache.Get(ctx, cache.KeyTimeline, &cached) {
		return cached, nil
	}

	groups, err := e.store.Aggregate(ctx, store.GroupSpec{
		Key:             store.KeyDay,
		CollectEmotions: true,
		Limit:           timelineLimit,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]TimelineEntry, 0, len(groups))
	for _, g := range groups {
		entries = append(entries, TimelineEntry{
			Date:     g.Key.Date,
			Count:    g.Count,
			Emotions: orEmpty(g.Emotions),
		})
	}
	e.cache.Set(ctx, cache.KeyTimeline, entries)
	return entries, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
