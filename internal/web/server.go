// Package web serves the portal's local HTTP API: the incident board,
// per-type map models, SOS submission and map configuration for the
// static front end. All incident data comes from the polled board; the
// only write path is the SOS endpoint.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/disaster-portal/internal/board"
	"github.com/example/disaster-portal/internal/config"
	"github.com/example/disaster-portal/internal/mapview"
	"github.com/example/disaster-portal/internal/models"
	"github.com/example/disaster-portal/internal/sos"
)

// AuditTrail receives finished SOS outcomes; nil disables the trail.
type AuditTrail interface {
	PublishOutcome(o sos.Outcome) error
}

type Server struct {
	cfg    config.PortalConfig
	board  *board.Board
	flow   *sos.Flow
	audit  AuditTrail
	logger *slog.Logger
	mux    *mux.Router
}

func NewServer(cfg config.PortalConfig, b *board.Board, flow *sos.Flow, audit AuditTrail, logger *slog.Logger) *Server {
	s := &Server{cfg: cfg, board: b, flow: flow, audit: audit, logger: logger, mux: mux.NewRouter()}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/incidents", s.handleIncidents).Methods("GET")
	s.mux.HandleFunc("/api/incidents/groups", s.handleGroups).Methods("GET")
	s.mux.HandleFunc("/api/incidents/select", s.handleSelect).Methods("POST")
	s.mux.HandleFunc("/api/sos", s.handleSOS).Methods("POST")
	s.mux.HandleFunc("/api/config", s.handleConfig).Methods("GET")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// handleIncidents returns the board snapshot; ?q= applies the client-side
// filter on top of it.
func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	snap := s.board.Snapshot()
	if q := r.URL.Query().Get("q"); q != "" {
		snap.Incidents = s.board.Filter(q)
	}
	writeJSON(w, http.StatusOK, snap)
}

type groupModel struct {
	Glyph    string           `json:"glyph"`
	Markers  []mapview.Marker `json:"markers"`
	Viewport *mapview.Bounds  `json:"viewport,omitempty"`
}

// handleGroups partitions the visible set by disaster type and builds
// one map model per group. Selection clicks flow back through the board.
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	snap := s.board.Snapshot()
	groups := mapview.GroupByType(snap.Incidents)

	out := make(map[models.DisasterType]groupModel, len(groups))
	for t, incidents := range groups {
		view := mapview.NewView(mapview.GlyphFor(t), nil)
		view.SetIncidents(incidents)
		gm := groupModel{Glyph: mapview.GlyphFor(t), Markers: view.Markers()}
		if b, ok := view.Viewport(); ok {
			gm.Viewport = &b
		}
		out[t] = gm
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSelect mirrors a marker click: selects by id, or clears when the
// id is zero. Selecting an id that is not on the board is a 404.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ID == 0 {
		s.board.ClearSelection()
		writeJSON(w, http.StatusOK, map[string]bool{"selected": false})
		return
	}
	if !s.board.Select(body.ID) {
		writeError(w, http.StatusNotFound, "incident "+strconv.FormatInt(body.ID, 10)+" is not on the board")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"selected": true})
}

// handleSOS runs the report flow. The HTTP status only distinguishes
// "flow could not start" (precondition, 400) from "flow finished" (200);
// the body's kind carries the three terminal outcomes.
func (s *Server) handleSOS(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DisasterType models.DisasterType `json:"disaster_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome := s.flow.Report(r.Context(), body.DisasterType)
	if s.audit != nil {
		if err := s.audit.PublishOutcome(outcome); err != nil {
			s.logger.Warn("audit publish failed", "error", err)
		}
	}

	status := http.StatusOK
	if outcome.Kind == sos.OutcomePrecondition {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]any{
		"outcome": outcome,
		"text":    outcome.Text(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tile_url":              s.cfg.TileURL,
		"center":                models.Coordinate{Lat: s.cfg.MapCenterLat, Lon: s.cfg.MapCenterLon},
		"zoom":                  s.cfg.MapZoom,
		"poll_interval_seconds": int(s.cfg.PollInterval.Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
