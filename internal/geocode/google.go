package geocode

import (
	"context"
	"log/slog"

	"googlemaps.github.io/maps"

	"github.com/example/disaster-portal/internal/models"
	"github.com/example/disaster-portal/internal/observability"
)

// Google reverse-geocodes through the Google Maps Geocoding API. Chosen
// over Nominatim when an API key is configured; same fail-open contract.
type Google struct {
	client *maps.Client
	logger *slog.Logger
}

func NewGoogle(apiKey string, logger *slog.Logger) (*Google, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Google{client: c, logger: logger}, nil
}

func (g *Google) Reverse(ctx context.Context, coord models.Coordinate) models.Place {
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: coord.Lat, Lng: coord.Lon},
	})
	if err != nil || len(results) == 0 {
		observability.GeocodeFallbacks.Inc()
		g.logger.Debug("google reverse geocode degraded", "lat", coord.Lat, "lon", coord.Lon, "error", err)
		return Degraded
	}

	place := models.Place{Address: results[0].FormattedAddress, Pincode: UnknownPincode}
	for _, comp := range results[0].AddressComponents {
		for _, t := range comp.Types {
			if t == "postal_code" {
				place.Pincode = comp.LongName
			}
		}
	}
	if place.Address == "" {
		place.Address = UnknownAddress
	}
	return place
}
