package store

import (
	"math"
	"sort"
	"strconv"
	"time"

	"soundscape/model"
)

// FoldGroups evaluates a GroupSpec over a document snapshot. It is the single
// grouping implementation shared by the Mongo and in-memory stores: flatten,
// group into accumulators, sort, truncate.
func FoldGroups(docs []*model.SoundDocument, spec GroupSpec) []Group {
	acc := make(map[string]*Group)
	order := make([]string, 0)

	bump := func(id string, key GroupKey, doc *model.SoundDocument) {
		g, ok := acc[id]
		if !ok {
			g = &Group{Key: key}
			acc[id] = g
			order = append(order, id)
		}
		g.Count++
		if spec.ExemplarCap > 0 && len(g.Examples) < spec.ExemplarCap {
			g.Examples = append(g.Examples, doc.Name)
		}
		if spec.CollectEmotions {
			g.Emotions = append(g.Emotions, doc.Emotions...)
		}
	}

	for _, doc := range docs {
		switch spec.Key {
		case KeyFieldValue:
			for _, v := range unwindField(doc, spec.Unwind) {
				bump(v, GroupKey{Value: v}, doc)
			}
		case KeyGeoCell:
			if len(doc.Location.Coordinates) < 2 {
				continue
			}
			lat := roundTenth(doc.Location.Latitude())
			lng := roundTenth(doc.Location.Longitude())
			id := cellID(lat, lng)
			bump(id, GroupKey{Lat: lat, Lng: lng}, doc)
		case KeyDay:
			day := doc.CreatedAt.UTC().Truncate(24 * time.Hour)
			bump(day.Format("2006-01-02"), GroupKey{Date: day}, doc)
		}
	}

	groups := make([]Group, 0, len(order))
	for _, id := range order {
		groups = append(groups, *acc[id])
	}

	if spec.SortByCount {
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].Count > groups[j].Count
		})
	} else {
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].Key.Date.After(groups[j].Key.Date)
		})
	}

	if spec.Limit > 0 && len(groups) > spec.Limit {
		groups = groups[:spec.Limit]
	}
	return groups
}

func unwindField(doc *model.SoundDocument, field string) []string {
	switch field {
	case "emotions":
		return doc.Emotions
	case "tags":
		return doc.Tags
	case "soundTypes":
		return doc.SoundTypes
	}
	return nil
}

// roundTenth rounds a coordinate to one decimal place, the ~11km grid cell
// used for location stats.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func cellID(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', 1, 64) + "," + strconv.FormatFloat(lng, 'f', 1, 64)
}
