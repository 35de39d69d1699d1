package geoloc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/disaster-portal/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestIPLocatorParsesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","lat":22.7196,"lon":75.8577}`))
	}))
	defer srv.Close()

	coord, err := NewIPLocator(srv.URL, testLogger()).Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if coord.Lat != 22.7196 || coord.Lon != 75.8577 {
		t.Fatalf("unexpected coordinate %+v", coord)
	}
}

func TestIPLocatorFailureIsUnavailable(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"lookup failed", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"status":"fail"}`)) }},
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500) }},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("nope")) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			_, err := NewIPLocator(srv.URL, testLogger()).Current(context.Background())
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestDisabledDeniesPermission(t *testing.T) {
	_, err := Disabled{}.Current(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New("gps", models.Coordinate{}, "", testLogger()); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}
