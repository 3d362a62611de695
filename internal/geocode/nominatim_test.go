// README: Nominatim client tests against a stub HTTP server.
package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNominatimReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing User-Agent header")
		}
		q := r.URL.Query()
		if q.Get("lat") == "" || q.Get("lon") == "" {
			t.Errorf("missing coordinates: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"display_name": "Rathaus, Mitte, Berlin, Deutschland",
			"lat": "52.5200", "lon": "13.4050",
			"address": {"city": "Berlin", "state": "Berlin", "country": "Deutschland"}
		}`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.URL)
	p, err := g.Reverse(context.Background(), 52.52, 13.405)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if p.Name != "Berlin, Berlin, Deutschland" {
		t.Fatalf("unexpected name %q", p.Name)
	}
	if p.Lat != 52.52 || p.Lng != 13.405 {
		t.Fatalf("coordinates not parsed: %+v", p)
	}
}

func TestNominatimReverseTownFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"display_name": "Somewhere small",
			"lat": "1", "lon": "2",
			"address": {"town": "Greenfield", "state": "MA", "country": "United States"}
		}`))
	}))
	defer srv.Close()

	p, err := NewNominatimGeocoder(srv.URL).Reverse(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if p.City != "Greenfield" {
		t.Fatalf("town not used as city: %+v", p)
	}
}

func TestNominatimSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Paris" || q.Get("limit") != "8" {
			t.Errorf("unexpected query: %v", q)
		}
		w.Write([]byte(`[
			{"display_name": "Paris, Île-de-France, France", "lat": "48.8566", "lon": "2.3522",
			 "address": {"city": "Paris", "state": "Île-de-France", "country": "France"}},
			{"display_name": "Paris, TX, USA", "lat": "33.66", "lon": "-95.55",
			 "address": {"city": "Paris", "state": "Texas", "country": "United States"}}
		]`))
	}))
	defer srv.Close()

	places, err := NewNominatimGeocoder(srv.URL).Search(context.Background(), "Paris", 8)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("expected 2 results, got %d", len(places))
	}
	if places[0].Name != "Paris, Île-de-France, France" {
		t.Fatalf("unexpected first result %q", places[0].Name)
	}
	if places[1].Lat != 33.66 {
		t.Fatalf("second result coordinates wrong: %+v", places[1])
	}
}

func TestNominatimErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewNominatimGeocoder(srv.URL).Reverse(context.Background(), 1, 2); err == nil {
		t.Fatalf("expected an error on non-200 status")
	}
	if _, err := NewNominatimGeocoder(srv.URL).Search(context.Background(), "x", 1); err == nil {
		t.Fatalf("expected an error on non-200 status")
	}
}

func TestNominatimReverseEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := NewNominatimGeocoder(srv.URL).Reverse(context.Background(), 1, 2); err == nil {
		t.Fatalf("expected an error for an empty result")
	}
}
