package sos

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/disaster-portal/internal/gateway"
	"github.com/example/disaster-portal/internal/geocode"
	"github.com/example/disaster-portal/internal/geoloc"
	"github.com/example/disaster-portal/internal/models"
	"github.com/example/disaster-portal/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeGeocoder struct {
	calls int
	place models.Place
}

func (f *fakeGeocoder) Reverse(ctx context.Context, coord models.Coordinate) models.Place {
	f.calls++
	return f.place
}

type fakeCreator struct {
	calls    int
	lastReq  models.ReportRequest
	incident models.Incident
	err      error
}

func (f *fakeCreator) Create(ctx context.Context, req models.ReportRequest) (models.Incident, error) {
	f.calls++
	f.lastReq = req
	return f.incident, f.err
}

type failingLocator struct{ err error }

func (f failingLocator) Current(context.Context) (models.Coordinate, error) {
	return models.Coordinate{}, f.err
}

func loggedInSession(t *testing.T) *session.Store {
	t.Helper()
	st, err := session.Open(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SetTokens("tok", ""); err != nil {
		t.Fatal(err)
	}
	if err := st.SetCitizen(models.Citizen{ID: 9, Name: "Asha Rao", Phone: "9999999999"}); err != nil {
		t.Fatal(err)
	}
	return st
}

var here = models.Coordinate{Lat: 22.7196, Lon: 75.8577}

func TestReportAccepted(t *testing.T) {
	creator := &fakeCreator{incident: models.Incident{ID: 42, Status: "active"}}
	geocoder := &fakeGeocoder{place: models.Place{Address: "MG Road, Indore", Pincode: "452001"}}
	flow := NewFlow(geoloc.Static{Coord: here}, geocoder, creator, loggedInSession(t), testLogger())

	out := flow.Report(context.Background(), models.DisasterFire)
	if out.Kind != OutcomeAccepted {
		t.Fatalf("expected accepted, got %s (%s)", out.Kind, out.Reason)
	}
	if out.IncidentID != 42 || out.Status != "active" {
		t.Fatalf("server-assigned id/status missing: %+v", out)
	}
	if creator.lastReq.Address != "MG Road, Indore" || creator.lastReq.Pincode != "452001" {
		t.Fatalf("geocoded place not attached: %+v", creator.lastReq)
	}
}

// Transport failure must end in the degraded acknowledgment, not an
// error: the reporter is never told a safety-critical submission simply
// vanished.
func TestReportUnconfirmedOnTransportFailure(t *testing.T) {
	creator := &fakeCreator{err: &gateway.Error{Op: "create", Message: "connection refused"}}
	flow := NewFlow(geoloc.Static{Coord: here}, &fakeGeocoder{place: geocode.Degraded}, creator, loggedInSession(t), testLogger())

	out := flow.Report(context.Background(), models.DisasterAccident)
	if out.Kind != OutcomeUnconfirmed {
		t.Fatalf("expected unconfirmed, got %s", out.Kind)
	}
	if out.Coordinate != here {
		t.Fatalf("captured coordinate lost: %+v", out.Coordinate)
	}
}

func TestReportRejectedKeepsCapturedDetails(t *testing.T) {
	creator := &fakeCreator{err: &gateway.Error{Op: "create", Status: 422, Message: "duplicate report"}}
	geocoder := &fakeGeocoder{place: models.Place{Address: "MG Road", Pincode: "452001"}}
	flow := NewFlow(geoloc.Static{Coord: here}, geocoder, creator, loggedInSession(t), testLogger())

	out := flow.Report(context.Background(), models.DisasterFire)
	if out.Kind != OutcomeRejected {
		t.Fatalf("expected rejected, got %s", out.Kind)
	}
	if out.Reason != "duplicate report" {
		t.Fatalf("expected server reason, got %q", out.Reason)
	}
	if out.Coordinate != here || out.Place.Address != "MG Road" {
		t.Fatalf("captured details lost on rejection: %+v", out)
	}
}

func TestReportMissingCoordinateMakesNoCalls(t *testing.T) {
	creator := &fakeCreator{}
	geocoder := &fakeGeocoder{}
	flow := NewFlow(failingLocator{err: geoloc.ErrUnavailable}, geocoder, creator, loggedInSession(t), testLogger())

	out := flow.Report(context.Background(), models.DisasterFire)
	if out.Kind != OutcomePrecondition {
		t.Fatalf("expected precondition failure, got %s", out.Kind)
	}
	if creator.calls != 0 || geocoder.calls != 0 {
		t.Fatalf("expected zero network calls, got create=%d geocode=%d", creator.calls, geocoder.calls)
	}
}

func TestReportNotLoggedIn(t *testing.T) {
	st, err := session.Open(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatal(err)
	}
	creator := &fakeCreator{}
	flow := NewFlow(geoloc.Static{Coord: here}, &fakeGeocoder{}, creator, st, testLogger())

	out := flow.Report(context.Background(), models.DisasterFire)
	if out.Kind != OutcomePrecondition {
		t.Fatalf("expected precondition failure, got %s", out.Kind)
	}
	if creator.calls != 0 {
		t.Fatal("expected no submission without an identity snapshot")
	}
}

func TestDegradedGeocodeStillSubmits(t *testing.T) {
	creator := &fakeCreator{incident: models.Incident{ID: 7, Status: "active"}}
	flow := NewFlow(geoloc.Static{Coord: here}, &fakeGeocoder{place: geocode.Degraded}, creator, loggedInSession(t), testLogger())

	out := flow.Report(context.Background(), models.DisasterLandslide)
	if out.Kind != OutcomeAccepted {
		t.Fatalf("degraded geocode must not block the report, got %s", out.Kind)
	}
	if creator.lastReq.Address != geocode.UnknownAddress || creator.lastReq.Pincode != geocode.UnknownPincode {
		t.Fatalf("expected placeholder address on the wire: %+v", creator.lastReq)
	}
}
