package board

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/disaster-portal/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeLister struct {
	mu        sync.Mutex
	incidents []models.Incident
	err       error
	calls     int
}

func (f *fakeLister) ListActive(ctx context.Context) ([]models.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.incidents, f.err
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func incident(id int64, t models.DisasterType) models.Incident {
	return models.Incident{ID: id, DisasterType: t, Status: "active"}
}

func TestFirstRefreshMovesToReady(t *testing.T) {
	f := &fakeLister{incidents: []models.Incident{incident(1, models.DisasterFire)}}
	b := New(f, time.Second, testLogger())

	if b.Snapshot().State != StateLoading {
		t.Fatal("expected loading before first refresh")
	}
	b.Refresh(context.Background())
	snap := b.Snapshot()
	if snap.State != StateReady {
		t.Fatalf("expected ready, got %s", snap.State)
	}
	if len(snap.Incidents) != 1 || snap.Incidents[0].ID != 1 {
		t.Fatalf("unexpected incidents %+v", snap.Incidents)
	}
}

// A response from an older request must never overwrite a newer one.
func TestStaleResponseDiscarded(t *testing.T) {
	b := New(&fakeLister{}, time.Second, testLogger())

	old := b.begin()
	fresh := b.begin()
	b.complete(fresh, []models.Incident{incident(2, models.DisasterAccident)}, nil)
	b.complete(old, []models.Incident{incident(1, models.DisasterFire)}, nil)

	snap := b.Snapshot()
	if len(snap.Incidents) != 1 || snap.Incidents[0].ID != 2 {
		t.Fatalf("stale response overwrote fresh state: %+v", snap.Incidents)
	}
}

func TestStaleErrorDiscarded(t *testing.T) {
	b := New(&fakeLister{}, time.Second, testLogger())

	old := b.begin()
	fresh := b.begin()
	b.complete(fresh, []models.Incident{incident(2, models.DisasterAccident)}, nil)
	b.complete(old, nil, errors.New("late timeout"))

	snap := b.Snapshot()
	if snap.State != StateReady || snap.Error != "" {
		t.Fatalf("stale error corrupted state: %+v", snap)
	}
}

func TestFailedRefreshKeepsStaleData(t *testing.T) {
	b := New(&fakeLister{}, time.Second, testLogger())
	b.complete(b.begin(), []models.Incident{incident(1, models.DisasterFire)}, nil)
	b.complete(b.begin(), nil, errors.New("backend down"))

	snap := b.Snapshot()
	if snap.State != StateError {
		t.Fatalf("expected error state, got %s", snap.State)
	}
	if len(snap.Incidents) != 1 {
		t.Fatal("previous data must stay visible through a failed refresh")
	}
	if snap.Error == "" {
		t.Fatal("expected surfaced error")
	}
}

func TestSelectionSurvivesRefreshWhilePresent(t *testing.T) {
	b := New(&fakeLister{}, time.Second, testLogger())
	b.complete(b.begin(), []models.Incident{incident(1, models.DisasterFire), incident(2, models.DisasterAccident)}, nil)

	if !b.Select(2) {
		t.Fatal("select failed")
	}
	b.complete(b.begin(), []models.Incident{incident(2, models.DisasterAccident)}, nil)
	if sel, ok := b.Selection(); !ok || sel.ID != 2 {
		t.Fatalf("expected selection to survive, got %+v ok=%v", sel, ok)
	}

	b.complete(b.begin(), []models.Incident{incident(3, models.DisasterLandslide)}, nil)
	if _, ok := b.Selection(); ok {
		t.Fatal("expected selection cleared once the id disappeared")
	}
}

func TestSelectUnknownIDRefused(t *testing.T) {
	b := New(&fakeLister{}, time.Second, testLogger())
	b.complete(b.begin(), []models.Incident{incident(1, models.DisasterFire)}, nil)
	if b.Select(99) {
		t.Fatal("selecting an absent id must fail")
	}
}

func TestFilter(t *testing.T) {
	b := New(&fakeLister{}, time.Second, testLogger())
	b.complete(b.begin(), []models.Incident{
		{ID: 1, DisasterType: models.DisasterFire, Address: "MG Road, Indore", ReporterName: "Asha"},
		{ID: 2, DisasterType: models.DisasterAccident, Address: "Ring Road", ReporterName: "Ravi"},
	}, nil)

	if got := b.Filter("indore"); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("address filter failed: %+v", got)
	}
	if got := b.Filter("ravi"); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("reporter filter failed: %+v", got)
	}
	if got := b.Filter(""); len(got) != 2 {
		t.Fatalf("empty query must return everything, got %d", len(got))
	}
}

func TestStopEndsRun(t *testing.T) {
	f := &fakeLister{}
	b := New(f, 10*time.Millisecond, testLogger())

	done := make(chan struct{})
	go func() {
		b.Run(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	b.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	if f.callCount() == 0 {
		t.Fatal("expected at least one refresh while running")
	}
}
