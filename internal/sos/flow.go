// Package sos implements the emergency-reporting workflow: capture the
// citizen's position, reverse-geocode it, submit the report, and map the
// result onto three deliberately distinct outcomes. The unusual one is
// OutcomeUnconfirmed: when the server is unreachable the reporter is
// shown a locally composed acknowledgment rather than a failure, so a
// safety-critical submission never appears to silently vanish.
package sos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/example/disaster-portal/internal/gateway"
	"github.com/example/disaster-portal/internal/geocode"
	"github.com/example/disaster-portal/internal/geoloc"
	"github.com/example/disaster-portal/internal/models"
	"github.com/example/disaster-portal/internal/observability"
	"github.com/example/disaster-portal/internal/session"
)

type OutcomeKind int

const (
	// OutcomePrecondition: missing identity or location; nothing was sent.
	OutcomePrecondition OutcomeKind = iota
	// OutcomeAccepted: the server acknowledged and assigned an id.
	OutcomeAccepted
	// OutcomeRejected: the server was reachable but refused the report.
	OutcomeRejected
	// OutcomeUnconfirmed: transport failed; receipt cannot be confirmed.
	OutcomeUnconfirmed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePrecondition:
		return "precondition_failed"
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnconfirmed:
		return "unconfirmed"
	default:
		return "unknown"
	}
}

// MarshalJSON emits the kind name so API clients never see raw ordinals.
func (k OutcomeKind) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(k.String())), nil
}

// Outcome carries everything the UI needs to present the result. The
// captured coordinate and address stay attached even on rejection, so
// the report is never silently lost from the reporter's perspective.
type Outcome struct {
	Kind         OutcomeKind         `json:"kind"`
	DisasterType models.DisasterType `json:"disaster_type"`
	IncidentID   int64               `json:"incident_id,omitempty"`
	Status       string              `json:"status,omitempty"`
	Reason       string              `json:"reason,omitempty"`
	Reporter     models.Citizen      `json:"reporter"`
	Coordinate   models.Coordinate   `json:"coordinate"`
	Place        models.Place        `json:"place"`
}

// Creator is the slice of the gateway the flow needs.
type Creator interface {
	Create(ctx context.Context, req models.ReportRequest) (models.Incident, error)
}

type Flow struct {
	locator  geoloc.Provider
	geocoder geocode.Geocoder
	creator  Creator
	session  *session.Store
	validate *validator.Validate
	logger   *slog.Logger
}

func NewFlow(locator geoloc.Provider, geocoder geocode.Geocoder, creator Creator, sess *session.Store, logger *slog.Logger) *Flow {
	return &Flow{
		locator:  locator,
		geocoder: geocoder,
		creator:  creator,
		session:  sess,
		validate: validator.New(),
		logger:   logger,
	}
}

// Report runs the full submission for one disaster type.
func (f *Flow) Report(ctx context.Context, disasterType models.DisasterType) Outcome {
	out := Outcome{DisasterType: disasterType}

	citizen, ok := f.session.Citizen()
	if !ok {
		return f.finish(precondition(out, "not logged in"))
	}
	out.Reporter = citizen

	coord, err := f.locator.Current(ctx)
	if err != nil {
		reason := "location unavailable"
		if errors.Is(err, geoloc.ErrPermissionDenied) {
			reason = "location permission denied"
		}
		return f.finish(precondition(out, reason))
	}
	out.Coordinate = coord

	req := models.ReportRequest{
		DisasterType:  disasterType,
		Latitude:      coord.Lat,
		Longitude:     coord.Lon,
		ReporterName:  citizen.Name,
		ReporterPhone: citizen.Phone,
	}
	if err := f.validate.Struct(req); err != nil {
		return f.finish(precondition(out, "invalid report: "+err.Error()))
	}

	// Fail-open by contract: a degraded address never blocks the report.
	place := f.geocoder.Reverse(ctx, coord)
	out.Place = place
	req.Address = place.Address
	req.Pincode = place.Pincode

	incident, err := f.creator.Create(ctx, req)
	if err != nil {
		var ge *gateway.Error
		if errors.As(err, &ge) && ge.Unreachable() {
			out.Kind = OutcomeUnconfirmed
			return f.finish(out)
		}
		out.Kind = OutcomeRejected
		out.Reason = err.Error()
		if ge != nil {
			out.Reason = ge.Message
		}
		return f.finish(out)
	}

	out.Kind = OutcomeAccepted
	out.IncidentID = incident.ID
	out.Status = incident.Status
	return f.finish(out)
}

func (f *Flow) finish(out Outcome) Outcome {
	observability.SOSOutcomes.WithLabelValues(out.Kind.String()).Inc()
	f.logger.Info("sos report finished",
		"kind", out.Kind.String(),
		"disaster_type", out.DisasterType,
		"incident_id", out.IncidentID,
	)
	return out
}

func precondition(out Outcome, reason string) Outcome {
	out.Kind = OutcomePrecondition
	out.Reason = reason
	return out
}

// Text composes the user-facing acknowledgment for each outcome.
func (o Outcome) Text() string {
	label := titleType(o.DisasterType)
	switch o.Kind {
	case OutcomeAccepted:
		return fmt.Sprintf(
			"%s Incident Reported Successfully!\n\nIncident ID: %d\nStatus: %s\n\nYour Details:\nName: %s\nPhone: %s\nLocation: %.4f, %.4f\nAddress: %s\n\nAuthorities have been notified.",
			label, o.IncidentID, o.Status, o.Reporter.Name, o.Reporter.Phone, o.Coordinate.Lat, o.Coordinate.Lon, o.Place.Address,
		)
	case OutcomeRejected:
		return fmt.Sprintf(
			"Error reporting incident: %s\n\nHowever, your location has been recorded:\nLat: %.4f, Lng: %.4f\nAddress: %s",
			o.Reason, o.Coordinate.Lat, o.Coordinate.Lon, o.Place.Address,
		)
	case OutcomeUnconfirmed:
		return fmt.Sprintf(
			"%s Incident Report Sent!\n\nYour Details:\nName: %s\nPhone: %s\nLocation: %.4f, %.4f\n\nPlease stay safe. Emergency services have been alerted.",
			label, o.Reporter.Name, o.Reporter.Phone, o.Coordinate.Lat, o.Coordinate.Lon,
		)
	default:
		return "Unable to report emergency. " + o.Reason + ". Please ensure location is enabled and you are logged in."
	}
}

func titleType(t models.DisasterType) string {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return "Emergency"
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
