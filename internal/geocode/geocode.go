// Package geocode converts coordinates into postal addresses. Every
// implementation is fail-open: a lookup that cannot produce an address
// yields the degraded placeholder instead of an error, so a disaster
// report can still be filed on coordinates alone.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/disaster-portal/internal/models"
	"github.com/example/disaster-portal/internal/observability"
)

const (
	UnknownAddress = "Unknown"
	UnknownPincode = "N/A"
)

// Degraded is the fallback Place returned whenever a lookup fails.
var Degraded = models.Place{Address: UnknownAddress, Pincode: UnknownPincode}

// Geocoder resolves a coordinate to a Place. Implementations never
// return an error; they degrade.
type Geocoder interface {
	Reverse(ctx context.Context, coord models.Coordinate) models.Place
}

// Nominatim reverse-geocodes against an OpenStreetMap Nominatim server.
type Nominatim struct {
	Endpoint string
	Client   *http.Client
	logger   *slog.Logger
}

func NewNominatim(endpoint string, logger *slog.Logger) *Nominatim {
	return &Nominatim{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

func (n *Nominatim) Reverse(ctx context.Context, coord models.Coordinate) models.Place {
	q := url.Values{
		"format": {"json"},
		"lat":    {strconv.FormatFloat(coord.Lat, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(coord.Lon, 'f', 6, 64)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.Endpoint+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return n.degrade(coord, err)
	}
	// Nominatim's usage policy requires an identifying agent.
	req.Header.Set("User-Agent", "disaster-portal/1.0")

	resp, err := n.Client.Do(req)
	if err != nil {
		return n.degrade(coord, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return n.degrade(coord, fmt.Errorf("nominatim status %d", resp.StatusCode))
	}

	var out struct {
		Address struct {
			Road     string `json:"road"`
			Suburb   string `json:"suburb"`
			City     string `json:"city"`
			Town     string `json:"town"`
			Village  string `json:"village"`
			Postcode string `json:"postcode"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return n.degrade(coord, err)
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{out.Address.Road, out.Address.Suburb, settlement(out.Address.City, out.Address.Town, out.Address.Village)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	place := models.Place{Address: strings.Join(parts, ", "), Pincode: out.Address.Postcode}
	if place.Address == "" {
		place.Address = UnknownAddress
	}
	if place.Pincode == "" {
		place.Pincode = UnknownPincode
	}
	return place
}

func (n *Nominatim) degrade(coord models.Coordinate, err error) models.Place {
	observability.GeocodeFallbacks.Inc()
	n.logger.Debug("reverse geocode degraded", "lat", coord.Lat, "lon", coord.Lon, "error", err)
	return Degraded
}

func settlement(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
