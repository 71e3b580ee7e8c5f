package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audio quality levels a sound document may carry.
const (
	QualityLow          = "low"
	QualityMedium       = "medium"
	QualityHigh         = "high"
	QualityProfessional = "professional"
)

// DefaultAudioQuality is assigned when a client omits the quality or sends an
// unknown value.
const DefaultAudioQuality = QualityMedium

// ValidQuality reports whether q is one of the known audio quality levels.
func ValidQuality(q string) bool {
	switch q {
	case QualityLow, QualityMedium, QualityHigh, QualityProfessional:
		return true
	}
	return false
}

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude], which
// is the order the 2dsphere index expects.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from a longitude/latitude pair.
func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Longitude returns the point's longitude, or 0 for a malformed point.
func (p GeoPoint) Longitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

// Latitude returns the point's latitude, or 0 for a malformed point.
func (p GeoPoint) Latitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// SoundDocument represents one geo-tagged sound recording in the catalog.
// ID and CreatedAt are assigned at creation and never change afterwards.
type SoundDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Location        GeoPoint           `bson:"location" json:"location"`
	SoundTypes      []string           `bson:"soundTypes" json:"soundTypes"`
	Emotions        []string           `bson:"emotions" json:"emotions"`
	Tags            []string           `bson:"tags" json:"tags"`
	AudioURL        string             `bson:"audioUrl" json:"audioUrl"`
	Author          string             `bson:"author" json:"author"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	Description     string             `bson:"description" json:"description"`
	DurationSeconds int                `bson:"durationSeconds" json:"durationSeconds"`
	AudioQuality    string             `bson:"audioQuality" json:"audioQuality"`

	// DistanceMeters is populated only on proximity query results.
	DistanceMeters float64 `bson:"distanceMeters,omitempty" json:"distanceMeters,omitempty"`
}
