// Package geoloc obtains a single best-effort coordinate for the
// reporting citizen. There is no browser geolocation API in a server
// process, so the portal offers a fixed coordinate, an IP-based lookup,
// or nothing at all; callers decide whether to prompt again.
package geoloc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/disaster-portal/internal/models"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location unavailable")
)

// Provider yields the current position once per call. No retries.
type Provider interface {
	Current(ctx context.Context) (models.Coordinate, error)
}

// New selects a provider by name: "static", "ip" or "off".
func New(provider string, static models.Coordinate, ipEndpoint string, logger *slog.Logger) (Provider, error) {
	switch provider {
	case "static":
		return Static{Coord: static}, nil
	case "ip":
		return NewIPLocator(ipEndpoint, logger), nil
	case "off":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown locate provider %q", provider)
	}
}

// Static always reports the configured coordinate.
type Static struct {
	Coord models.Coordinate
}

func (s Static) Current(context.Context) (models.Coordinate, error) {
	return s.Coord, nil
}

// Disabled models the citizen having denied location access.
type Disabled struct{}

func (Disabled) Current(context.Context) (models.Coordinate, error) {
	return models.Coordinate{}, ErrPermissionDenied
}

// IPLocator asks an ip-api style endpoint where this machine appears to
// be. Coarse, but good enough to anchor a report when nothing better is
// configured.
type IPLocator struct {
	Endpoint string
	Client   *http.Client
	logger   *slog.Logger
}

func NewIPLocator(endpoint string, logger *slog.Logger) *IPLocator {
	return &IPLocator{Endpoint: endpoint, Client: &http.Client{Timeout: 5 * time.Second}, logger: logger}
}

func (l *IPLocator) Current(ctx context.Context) (models.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Endpoint, nil)
	if err != nil {
		return models.Coordinate{}, ErrUnavailable
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		l.logger.Debug("ip locate failed", "error", err)
		return models.Coordinate{}, ErrUnavailable
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.Coordinate{}, ErrUnavailable
	}

	var out struct {
		Status string  `json:"status"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Coordinate{}, ErrUnavailable
	}
	if out.Status != "success" {
		return models.Coordinate{}, ErrUnavailable
	}
	return models.Coordinate{Lat: out.Lat, Lon: out.Lon}, nil
}
