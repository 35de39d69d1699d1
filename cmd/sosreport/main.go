// sosreport files a single emergency report from the terminal: locate,
// reverse-geocode, submit, print the acknowledgment. It shares the
// portal's session file, so a login here authenticates the portal too.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/example/disaster-portal/internal/config"
	"github.com/example/disaster-portal/internal/gateway"
	"github.com/example/disaster-portal/internal/geocode"
	"github.com/example/disaster-portal/internal/geoloc"
	"github.com/example/disaster-portal/internal/logging"
	"github.com/example/disaster-portal/internal/models"
	"github.com/example/disaster-portal/internal/session"
	"github.com/example/disaster-portal/internal/sos"
)

func main() {
	var (
		disasterType string
		lat, lon     float64
		hasCoords    bool
		login        string
		password     string
	)
	flag.StringVar(&disasterType, "type", "", "disaster type to report (fire, accident, landslide)")
	flag.Float64Var(&lat, "lat", 0, "override latitude")
	flag.Float64Var(&lon, "lon", 0, "override longitude")
	flag.StringVar(&login, "login", "", "log in as this username or phone instead of reporting")
	flag.StringVar(&password, "password", "", "password for -login (or PORTAL_PASSWORD env)")
	flag.Parse()
	hasCoords = flagWasSet("lat") && flagWasSet("lon")

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
			fmt.Fprintln(os.Stderr, "session expired: run sosreport -login <username> again")
		}),
	)

	ctx := context.Background()

	if login != "" {
		if password == "" {
			password = os.Getenv("PORTAL_PASSWORD")
		}
		citizen, err := gw.Login(ctx, gateway.Credentials{UsernameOrPhone: login, Password: password})
		if err != nil {
			log.Fatalf("login: %v", err)
		}
		fmt.Printf("logged in as %s (%s)\n", citizen.Name, citizen.Phone)
		return
	}

	if disasterType == "" {
		fmt.Fprintln(os.Stderr, "missing -type; one of fire, accident, landslide")
		os.Exit(2)
	}

	var locator geoloc.Provider
	if hasCoords {
		locator = geoloc.Static{Coord: models.Coordinate{Lat: lat, Lon: lon}}
	} else {
		locator, err = geoloc.New(cfg.LocateProvider,
			models.Coordinate{Lat: cfg.StaticLat, Lon: cfg.StaticLon},
			cfg.IPLocateURL, logging.Component(logger, "geoloc"))
		if err != nil {
			log.Fatalf("geoloc: %v", err)
		}
	}

	var geocoder geocode.Geocoder
	if cfg.MapsAPIKey != "" {
		geocoder, err = geocode.NewGoogle(cfg.MapsAPIKey, logging.Component(logger, "geocode"))
		if err != nil {
			log.Fatalf("google geocoder: %v", err)
		}
	} else {
		geocoder = geocode.NewNominatim(cfg.NominatimURL, logging.Component(logger, "geocode"))
	}

	flow := sos.NewFlow(locator, geocoder, gw, sess, logging.Component(logger, "sos"))
	outcome := flow.Report(ctx, models.DisasterType(disasterType))

	fmt.Println(outcome.Text())
	switch outcome.Kind {
	case sos.OutcomeAccepted, sos.OutcomeUnconfirmed:
		os.Exit(0)
	case sos.OutcomeRejected:
		os.Exit(1)
	default:
		os.Exit(2)
	}
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
