package mapview

import (
	"testing"

	"github.com/example/disaster-portal/internal/models"
)

func TestGroupByTypePartitions(t *testing.T) {
	incidents := []models.Incident{
		{ID: 1, DisasterType: models.DisasterFire, Latitude: 22.70, Longitude: 75.85},
		{ID: 2, DisasterType: models.DisasterAccident, Latitude: 22.73, Longitude: 75.86},
	}
	groups := GroupByType(incidents)

	if len(groups[models.DisasterFire]) != 1 || groups[models.DisasterFire][0].ID != 1 {
		t.Fatalf("fire group wrong: %+v", groups[models.DisasterFire])
	}
	if len(groups[models.DisasterAccident]) != 1 || groups[models.DisasterAccident][0].ID != 2 {
		t.Fatalf("accident group wrong: %+v", groups[models.DisasterAccident])
	}
	if g, ok := groups[models.DisasterLandslide]; !ok || len(g) != 0 {
		t.Fatalf("landslide group must exist and be empty: %+v", g)
	}

	// Union of groups reconstructs the input; nothing duplicated or lost.
	seen := make(map[int64]int)
	for _, g := range groups {
		for _, in := range g {
			seen[in.ID]++
		}
	}
	if len(seen) != len(incidents) {
		t.Fatalf("expected %d distinct incidents, got %d", len(incidents), len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("incident %d appeared in %d groups", id, n)
		}
	}
}

func TestGroupByTypeKeepsUnknownTypes(t *testing.T) {
	groups := GroupByType([]models.Incident{{ID: 7, DisasterType: "flood"}})
	if len(groups["flood"]) != 1 {
		t.Fatalf("unknown type must get its own group: %+v", groups)
	}
}

func TestEmptyViewIsSafe(t *testing.T) {
	v := NewView(GlyphFor(models.DisasterFire), nil)
	v.SetIncidents(nil)

	if len(v.Markers()) != 0 {
		t.Fatal("expected no markers")
	}
	if _, ok := v.Viewport(); ok {
		t.Fatal("expected no viewport for an empty view")
	}
	if v.Click(1) {
		t.Fatal("click on an empty view must be a no-op")
	}
}

func TestSetIncidentsReplacesMarkers(t *testing.T) {
	v := NewView("🔥", nil)
	v.SetIncidents([]models.Incident{{ID: 1, Latitude: 1, Longitude: 1}})
	v.SetIncidents([]models.Incident{{ID: 2, Latitude: 2, Longitude: 2}})

	markers := v.Markers()
	if len(markers) != 1 || markers[0].IncidentID != 2 {
		t.Fatalf("stale markers survived replacement: %+v", markers)
	}
	if v.Click(1) {
		t.Fatal("removed marker must not be clickable")
	}
}

func TestViewportBoundsAllMarkersWithPadding(t *testing.T) {
	v := NewView("🔥", nil)
	v.SetIncidents([]models.Incident{
		{ID: 1, Latitude: 22.70, Longitude: 75.85},
		{ID: 2, Latitude: 22.73, Longitude: 75.86},
	})

	b, ok := v.Viewport()
	if !ok {
		t.Fatal("expected a viewport")
	}
	if b.MinLat >= 22.70 || b.MaxLat <= 22.73 {
		t.Fatalf("latitude bounds not padded: %+v", b)
	}
	if b.MinLon >= 75.85 || b.MaxLon <= 75.86 {
		t.Fatalf("longitude bounds not padded: %+v", b)
	}
}

func TestSingleMarkerViewportNotDegenerate(t *testing.T) {
	v := NewView("🔥", nil)
	v.SetIncidents([]models.Incident{{ID: 1, Latitude: 22.70, Longitude: 75.85}})

	b, ok := v.Viewport()
	if !ok {
		t.Fatal("expected a viewport")
	}
	if b.MinLat == b.MaxLat || b.MinLon == b.MaxLon {
		t.Fatalf("viewport collapsed to a point: %+v", b)
	}
}

func TestClickDispatchesIncident(t *testing.T) {
	var clicked models.Incident
	v := NewView("🔥", func(in models.Incident) { clicked = in })
	v.SetIncidents([]models.Incident{{ID: 5, DisasterType: models.DisasterFire, ReporterName: "Asha"}})

	if !v.Click(5) {
		t.Fatal("click on a present marker must dispatch")
	}
	if clicked.ID != 5 || clicked.ReporterName != "Asha" {
		t.Fatalf("handler got wrong incident: %+v", clicked)
	}
}

func TestHaversineZero(t *testing.T) {
	if d := Haversine(0, 0, 0, 0); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}
