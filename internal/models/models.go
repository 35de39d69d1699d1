package models

import "time"

type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// DisasterType is the closed set of categories the portal groups and
// renders by. The backend may introduce new values; unknown types are
// carried through untouched and grouped under their own key.
type DisasterType string

const (
	DisasterFire      DisasterType = "fire"
	DisasterAccident  DisasterType = "accident"
	DisasterLandslide DisasterType = "landslide"
)

// KnownDisasterTypes lists the types the portal always renders a group
// for, even when no incident of that type is currently visible.
var KnownDisasterTypes = []DisasterType{DisasterFire, DisasterAccident, DisasterLandslide}

// Incident is a single reported disaster event as the backend returns it.
// ID and ReportedAt are server-assigned; the portal never synthesizes
// either. Address and Pincode are derived once at report time and not
// re-derived afterwards.
type Incident struct {
	ID            int64        `json:"id"`
	DisasterType  DisasterType `json:"disaster_type"`
	Address       string       `json:"full_address"`
	Pincode       string       `json:"pincode"`
	Latitude      float64      `json:"latitude"`
	Longitude     float64      `json:"longitude"`
	ReporterName  string       `json:"citizen_name"`
	ReporterPhone string       `json:"citizen_phone"`
	ReportedAt    time.Time    `json:"reported_time"`
	Status        string       `json:"status"`
}

func (i Incident) Coordinate() Coordinate {
	return Coordinate{Lat: i.Latitude, Lon: i.Longitude}
}

// ReportRequest is the payload of an SOS submission: an Incident minus
// the server-assigned fields.
type ReportRequest struct {
	DisasterType  DisasterType `json:"disaster_type" validate:"required"`
	Address       string       `json:"full_address"`
	Pincode       string       `json:"pincode"`
	Latitude      float64      `json:"latitude" validate:"min=-90,max=90"`
	Longitude     float64      `json:"longitude" validate:"min=-180,max=180"`
	ReporterName  string       `json:"citizen_name"`
	ReporterPhone string       `json:"citizen_phone"`
}

// Audience selects who an incident alert is delivered to.
type Audience string

const (
	AudienceAll        Audience = "all"
	AudienceVolunteers Audience = "volunteers"
	AudienceCitizens   Audience = "citizens"
)

// Citizen is the authenticated reporter snapshot cached in the session
// store at login. It is a copy, not a live reference: the backend record
// may change or disappear without this snapshot noticing.
type Citizen struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone_number"`
	Email string `json:"email"`
}

// Agency mirrors the agency profile the backend returns at agency login.
type Agency struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Place is a reverse-geocoding result attached to a report.
type Place struct {
	Address string `json:"address"`
	Pincode string `json:"pincode"`
}
