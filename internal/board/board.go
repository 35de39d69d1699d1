// Package board maintains the live view of active incidents: a polled
// snapshot of the backend's list, a selection, and a client-side filter.
// Refreshes may overlap; a response is discarded whenever a newer
// request was issued after it, so stale data can never overwrite fresh.
package board

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/disaster-portal/internal/models"
	"github.com/example/disaster-portal/internal/observability"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateRefreshing
	// StateError keeps the previous incidents visible; the failure is
	// surfaced alongside them, never instead of them.
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateRefreshing:
		return "refreshing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON emits the state name so API clients never see raw ordinals.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

// Lister is the slice of the gateway the board needs.
type Lister interface {
	ListActive(ctx context.Context) ([]models.Incident, error)
}

type Board struct {
	lister   Lister
	interval time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	incidents   []models.Incident
	lastErr     error
	refreshedAt time.Time
	selectedID  int64
	hasSelected bool
	issued      uint64

	stop     chan struct{}
	stopOnce sync.Once
}

func New(lister Lister, interval time.Duration, logger *slog.Logger) *Board {
	return &Board{
		lister:   lister,
		interval: interval,
		logger:   logger,
		state:    StateLoading,
		stop:     make(chan struct{}),
	}
}

// Run polls until the context is cancelled or Stop is called. Each tick
// refreshes in its own goroutine, so a slow backend cannot stall the
// schedule; the sequence check in complete keeps overlap safe.
func (b *Board) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	go b.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stop:
			return
		case <-ticker.C:
			go b.Refresh(ctx)
		}
	}
}

// Stop is the explicit teardown handle; safe to call more than once.
func (b *Board) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
}

// Refresh performs one fetch-and-apply cycle.
func (b *Board) Refresh(ctx context.Context) {
	seq := b.begin()
	incidents, err := b.lister.ListActive(ctx)
	b.complete(seq, incidents, err)
}

// begin issues a new refresh sequence number and moves a settled board
// into Refreshing.
func (b *Board) begin() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issued++
	if b.state == StateReady || b.state == StateError {
		b.state = StateRefreshing
	}
	return b.issued
}

// complete applies a refresh result unless a newer request was issued
// while this one was in flight.
func (b *Board) complete(seq uint64, incidents []models.Incident, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if seq != b.issued {
		observability.BoardStaleDrops.Inc()
		b.logger.Debug("discarding stale refresh", "seq", seq, "issued", b.issued)
		return
	}

	if err != nil {
		observability.BoardRefreshErrs.Inc()
		b.logger.Warn("board refresh failed", "error", err)
		b.state = StateError
		b.lastErr = err
		return
	}

	observability.BoardRefreshes.Inc()
	b.incidents = incidents
	b.state = StateReady
	b.lastErr = nil
	b.refreshedAt = time.Now()

	if b.hasSelected && !containsID(incidents, b.selectedID) {
		b.hasSelected = false
		b.selectedID = 0
	}
}

// Select marks an incident by id; it only sticks when the id is part of
// the current set. Selection survives refreshes for as long as the id
// stays visible.
func (b *Board) Select(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !containsID(b.incidents, id) {
		return false
	}
	b.selectedID = id
	b.hasSelected = true
	return true
}

func (b *Board) ClearSelection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hasSelected = false
	b.selectedID = 0
}

// Selection returns the currently selected incident, if any.
func (b *Board) Selection() (models.Incident, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasSelected {
		return models.Incident{}, false
	}
	for _, in := range b.incidents {
		if in.ID == b.selectedID {
			return in, true
		}
	}
	return models.Incident{}, false
}

// Snapshot is the board's view state at one instant.
type Snapshot struct {
	State       State             `json:"state"`
	Incidents   []models.Incident `json:"incidents"`
	Error       string            `json:"error,omitempty"`
	SelectedID  *int64            `json:"selected_id,omitempty"`
	RefreshedAt time.Time         `json:"refreshed_at"`
}

func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{
		State:       b.state,
		Incidents:   append([]models.Incident(nil), b.incidents...),
		RefreshedAt: b.refreshedAt,
	}
	if b.lastErr != nil {
		snap.Error = b.lastErr.Error()
	}
	if b.hasSelected {
		id := b.selectedID
		snap.SelectedID = &id
	}
	return snap
}

// Filter narrows the current snapshot by a case-insensitive substring
// match over type, address and reporter name.
func (b *Board) Filter(query string) []models.Incident {
	query = strings.ToLower(strings.TrimSpace(query))
	b.mu.Lock()
	defer b.mu.Unlock()
	if query == "" {
		return append([]models.Incident(nil), b.incidents...)
	}

	out := make([]models.Incident, 0, len(b.incidents))
	for _, in := range b.incidents {
		if strings.Contains(strings.ToLower(string(in.DisasterType)), query) ||
			strings.Contains(strings.ToLower(in.Address), query) ||
			strings.Contains(strings.ToLower(in.ReporterName), query) {
			out = append(out, in)
		}
	}
	return out
}

func containsID(incidents []models.Incident, id int64) bool {
	for _, in := range incidents {
		if in.ID == id {
			return true
		}
	}
	return false
}
