// Package mapview builds the render model the map front end consumes:
// one marker per incident, a viewport fitted around them, and grouping
// by disaster type. It renders nothing itself and mutates no shared
// state; marker clicks are forwarded to the owner.
package mapview

import (
	"math"

	"github.com/example/disaster-portal/internal/models"
)

// PaddingFactor widens the fitted viewport by a tenth of the marker span
// on each axis so edge markers are not pinned to the border.
const PaddingFactor = 0.1

// minPad keeps a single-marker viewport from collapsing to a point.
const minPad = 0.01

// DefaultGlyphs maps each known disaster type to its marker glyph.
var DefaultGlyphs = map[models.DisasterType]string{
	models.DisasterFire:      "🔥",
	models.DisasterAccident:  "🚨",
	models.DisasterLandslide: "⛰️",
}

// FallbackGlyph marks incidents of types the portal does not know.
const FallbackGlyph = "⚠️"

func GlyphFor(t models.DisasterType) string {
	if g, ok := DefaultGlyphs[t]; ok {
		return g
	}
	return FallbackGlyph
}

// GroupByType partitions incidents by disaster type. Every incident
// lands in exactly one group, and every known type is present even when
// empty, so the front end can render a stable set of layers.
func GroupByType(incidents []models.Incident) map[models.DisasterType][]models.Incident {
	groups := make(map[models.DisasterType][]models.Incident, len(models.KnownDisasterTypes))
	for _, t := range models.KnownDisasterTypes {
		groups[t] = []models.Incident{}
	}
	for _, in := range incidents {
		groups[in.DisasterType] = append(groups[in.DisasterType], in)
	}
	return groups
}

// Marker is one pinned incident.
type Marker struct {
	IncidentID     int64   `json:"incident_id"`
	Lat            float64 `json:"latitude"`
	Lon            float64 `json:"longitude"`
	Glyph          string  `json:"glyph"`
	Title          string  `json:"title"`
	PopupAddress   string  `json:"popup_address"`
	DistanceMeters float64 `json:"distance_meters,omitempty"`
}

// Bounds is the viewport that contains all current markers, already
// padded.
type Bounds struct {
	MinLat float64 `json:"min_latitude"`
	MinLon float64 `json:"min_longitude"`
	MaxLat float64 `json:"max_latitude"`
	MaxLon float64 `json:"max_longitude"`
}

// View holds the markers for one disaster type. SetIncidents replaces
// the full marker set; no incremental diffing.
type View struct {
	glyph     string
	onClick   func(models.Incident)
	reference *models.Coordinate
	incidents map[int64]models.Incident
	markers   []Marker
}

func NewView(glyph string, onClick func(models.Incident)) *View {
	return &View{
		glyph:     glyph,
		onClick:   onClick,
		incidents: make(map[int64]models.Incident),
	}
}

// SetReference makes subsequent markers carry their distance from the
// given point, typically the citizen's own position.
func (v *View) SetReference(coord models.Coordinate) {
	v.reference = &coord
}

// SetIncidents drops every existing marker and rebuilds from the input.
// An empty input yields an empty, valid view.
func (v *View) SetIncidents(incidents []models.Incident) {
	v.incidents = make(map[int64]models.Incident, len(incidents))
	v.markers = make([]Marker, 0, len(incidents))
	for _, in := range incidents {
		v.incidents[in.ID] = in
		m := Marker{
			IncidentID:   in.ID,
			Lat:          in.Latitude,
			Lon:          in.Longitude,
			Glyph:        v.glyph,
			Title:        in.ReporterName,
			PopupAddress: in.Address,
		}
		if v.reference != nil {
			m.DistanceMeters = Haversine(v.reference.Lat, v.reference.Lon, in.Latitude, in.Longitude)
		}
		v.markers = append(v.markers, m)
	}
}

func (v *View) Markers() []Marker {
	return append([]Marker(nil), v.markers...)
}

// Viewport fits all current markers with padding. ok is false when there
// is nothing to bound; the caller keeps its default center then.
func (v *View) Viewport() (Bounds, bool) {
	if len(v.markers) == 0 {
		return Bounds{}, false
	}
	b := Bounds{
		MinLat: v.markers[0].Lat, MaxLat: v.markers[0].Lat,
		MinLon: v.markers[0].Lon, MaxLon: v.markers[0].Lon,
	}
	for _, m := range v.markers[1:] {
		b.MinLat = math.Min(b.MinLat, m.Lat)
		b.MaxLat = math.Max(b.MaxLat, m.Lat)
		b.MinLon = math.Min(b.MinLon, m.Lon)
		b.MaxLon = math.Max(b.MaxLon, m.Lon)
	}

	padLat := (b.MaxLat - b.MinLat) * PaddingFactor
	if padLat == 0 {
		padLat = minPad
	}
	padLon := (b.MaxLon - b.MinLon) * PaddingFactor
	if padLon == 0 {
		padLon = minPad
	}
	b.MinLat -= padLat
	b.MaxLat += padLat
	b.MinLon -= padLon
	b.MaxLon += padLon
	return b, true
}

// Click forwards the marker interaction for the given incident id to the
// owner's handler. Unknown ids and handler-less views are no-ops.
func (v *View) Click(id int64) bool {
	in, ok := v.incidents[id]
	if !ok {
		return false
	}
	if v.onClick != nil {
		v.onClick(in)
	}
	return true
}

// Haversine distance in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
