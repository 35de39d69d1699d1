package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// PortalConfig captures all tunable parameters for the portal process.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally without excessive setup.
type PortalConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// External incident API.
	APIBaseURL     string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	NearbyRadiusKm float64

	// Reverse geocoding.
	NominatimURL    string
	MapsAPIKey      string
	GeocodeCacheTTL time.Duration

	// Optional Redis-backed geocode cache; in-memory when unset.
	RedisAddr     string
	RedisPassword string
	GeocodeKey    string

	// Optional SOS audit trail.
	KafkaBrokers []string
	KafkaTopic   string

	// Geolocation source: "static", "ip" or "off".
	LocateProvider string
	StaticLat      float64
	StaticLon      float64
	IPLocateURL    string

	// Map rendering defaults served to the front end.
	TileURL      string
	MapCenterLat float64
	MapCenterLon float64
	MapZoom      int

	SessionPath string
	LogLevel    string
}

func defaultPortalConfig() PortalConfig {
	return PortalConfig{
		HTTPAddr:        ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,

		APIBaseURL:     "http://localhost:8000",
		RequestTimeout: 10 * time.Second,
		PollInterval:   30 * time.Second,
		NearbyRadiusKm: 5,

		NominatimURL:    "https://nominatim.openstreetmap.org",
		GeocodeCacheTTL: 15 * time.Minute,
		GeocodeKey:      "geocode_cache",

		KafkaTopic: "sos-audit",

		LocateProvider: "ip",
		IPLocateURL:    "http://ip-api.com/json",

		TileURL:      "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		MapCenterLat: 22.7196,
		MapCenterLon: 75.8577,
		MapZoom:      12,

		SessionPath: defaultSessionPath(),
		LogLevel:    "info",
	}
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(home, ".disaster-portal", "session.json")
}

func LoadPortalConfig() (PortalConfig, error) {
	cfg := defaultPortalConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	setStringFromEnv(&cfg.APIBaseURL, "API_BASE_URL")
	setDurationFromEnv(&cfg.RequestTimeout, "API_REQUEST_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.PollInterval, "BOARD_POLL_INTERVAL", &errs)
	setFloatFromEnv(&cfg.NearbyRadiusKm, "NEARBY_RADIUS_KM", &errs)

	setStringFromEnv(&cfg.NominatimURL, "NOMINATIM_URL")
	cfg.MapsAPIKey = strings.TrimSpace(os.Getenv("MAPS_API_KEY"))
	setDurationFromEnv(&cfg.GeocodeCacheTTL, "GEOCODE_CACHE_TTL", &errs)

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.GeocodeKey, "GEOCODE_CACHE_KEY")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	setStringFromEnv(&cfg.LocateProvider, "LOCATE_PROVIDER")
	setFloatFromEnv(&cfg.StaticLat, "STATIC_LAT", &errs)
	setFloatFromEnv(&cfg.StaticLon, "STATIC_LON", &errs)
	setStringFromEnv(&cfg.IPLocateURL, "IP_LOCATE_URL")

	setStringFromEnv(&cfg.TileURL, "TILE_URL")
	setFloatFromEnv(&cfg.MapCenterLat, "MAP_CENTER_LAT", &errs)
	setFloatFromEnv(&cfg.MapCenterLon, "MAP_CENTER_LON", &errs)
	setIntFromEnv(&cfg.MapZoom, "MAP_ZOOM", &errs)

	setStringFromEnv(&cfg.SessionPath, "SESSION_PATH")
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	switch cfg.LocateProvider {
	case "static", "ip", "off":
	default:
		errs = append(errs, fmt.Errorf("LOCATE_PROVIDER must be static, ip or off"))
	}
	if cfg.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("BOARD_POLL_INTERVAL must be > 0"))
	}
	if cfg.NearbyRadiusKm <= 0 {
		errs = append(errs, fmt.Errorf("NEARBY_RADIUS_KM must be > 0"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
