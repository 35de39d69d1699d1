package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/example/disaster-portal/internal/audit"
	"github.com/example/disaster-portal/internal/board"
	"github.com/example/disaster-portal/internal/config"
	"github.com/example/disaster-portal/internal/gateway"
	"github.com/example/disaster-portal/internal/geocode"
	"github.com/example/disaster-portal/internal/geoloc"
	"github.com/example/disaster-portal/internal/logging"
	"github.com/example/disaster-portal/internal/models"
	"github.com/example/disaster-portal/internal/session"
	"github.com/example/disaster-portal/internal/sos"
	"github.com/example/disaster-portal/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadPortalConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	sess, err := session.Open(cfg.SessionPath)
	if err != nil {
		log.Fatalf("session: %v", err)
	}

	gw := gateway.New(cfg.APIBaseURL, sess, logging.Component(logger, "gateway"),
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		gateway.WithOnSessionExpired(func() {
			logger.Warn("session expired; authenticate again with sosreport -login")
		}),
	)

	var geocoder geocode.Geocoder
	if cfg.MapsAPIKey != "" {
		g, err := geocode.NewGoogle(cfg.MapsAPIKey, logging.Component(logger, "geocode"))
		if err != nil {
			log.Fatalf("google geocoder: %v", err)
		}
		geocoder = g
	} else {
		geocoder = geocode.NewNominatim(cfg.NominatimURL, logging.Component(logger, "geocode"))
	}
	var cache geocode.Cache
	if cfg.RedisAddr != "" {
		cache = geocode.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.GeocodeKey, cfg.GeocodeCacheTTL)
	} else {
		cache = geocode.NewMemoryCache(cfg.GeocodeCacheTTL)
	}
	geocoder = geocode.WithCache(geocoder, cache)

	locator, err := geoloc.New(cfg.LocateProvider,
		models.Coordinate{Lat: cfg.StaticLat, Lon: cfg.StaticLon},
		cfg.IPLocateURL, logging.Component(logger, "geoloc"))
	if err != nil {
		log.Fatalf("geoloc: %v", err)
	}

	flow := sos.NewFlow(locator, geocoder, gw, sess, logging.Component(logger, "sos"))
	b := board.New(gw, cfg.PollInterval, logging.Component(logger, "board"))

	var trail web.AuditTrail
	if len(cfg.KafkaBrokers) > 0 {
		kp := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		trail = kp
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go b.Run(ctx)
	defer b.Stop()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      web.NewServer(cfg, b, flow, trail, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("disaster portal listening", "addr", cfg.HTTPAddr, "api", cfg.APIBaseURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
