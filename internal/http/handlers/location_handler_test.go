// README: Location endpoint tests over the gin router.
package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"pipdash/internal/config"
	"pipdash/internal/geocode"
	"pipdash/internal/geoloc"
	httptransport "pipdash/internal/http"
	"pipdash/internal/modules/location"
	"pipdash/internal/modules/widgets"
)

type stubProvider struct {
	fix geoloc.Fix
	err error
}

func (p *stubProvider) Position(ctx context.Context, opts geoloc.Options) (geoloc.Fix, error) {
	if p.err != nil {
		return geoloc.Fix{}, p.err
	}
	return p.fix, nil
}

type stubGeocoder struct {
	places []geocode.Place
	err    error
}

func (g *stubGeocoder) Reverse(ctx context.Context, lat, lng float64) (geocode.Place, error) {
	if g.err != nil {
		return geocode.Place{}, g.err
	}
	return geocode.Place{Name: "Stub City, SC, Stubland"}, nil
}

func (g *stubGeocoder) Search(ctx context.Context, query string, limit int) ([]geocode.Place, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.places, nil
}

func newTestRouter(provider geoloc.Provider, geocoder geocode.Geocoder) (http.Handler, *location.Service) {
	gin.SetMode(gin.TestMode)
	svc := location.NewService(provider, nil, geocoder, nil, nil, config.LocationConfig{
		DefaultFrequencyMinutes: 5,
	})
	router := httptransport.NewRouter(httptransport.RouterDeps{
		Location: svc,
		Widgets:  widgets.NewService(nil),
	})
	return router, svc
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetLocationEmpty(t *testing.T) {
	router, svc := newTestRouter(&stubProvider{}, &stubGeocoder{})
	defer svc.Destroy()

	w := doRequest(t, router, http.MethodGet, "/api/location", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Sample *location.Sample `json:"sample"`
		Status location.Status  `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Sample != nil || resp.Status != location.StatusInactive {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestPostFix(t *testing.T) {
	router, svc := newTestRouter(&stubProvider{}, &stubGeocoder{})
	defer svc.Destroy()

	w := doRequest(t, router, http.MethodPost, "/api/location/fix",
		`{"lat": 52.52, "lng": 13.4, "accuracy_m": 12}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if s := svc.CurrentSample(); s == nil || s.Lat != 52.52 {
		t.Fatalf("fix not applied: %+v", s)
	}
}

func TestPostFixAcceptsZeroCoordinates(t *testing.T) {
	router, svc := newTestRouter(&stubProvider{}, &stubGeocoder{})
	defer svc.Destroy()

	// 0,0 and points on the equator or prime meridian are legal fixes.
	w := doRequest(t, router, http.MethodPost, "/api/location/fix",
		`{"lat": 0, "lng": 10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if s := svc.CurrentSample(); s == nil || s.Lat != 0 || s.Lng != 10 {
		t.Fatalf("fix not applied: %+v", s)
	}
}

func TestPostFixMissingCoordinate(t *testing.T) {
	router, svc := newTestRouter(&stubProvider{}, &stubGeocoder{})
	defer svc.Destroy()

	w := doRequest(t, router, http.MethodPost, "/api/location/fix", `{"lat": 52.52}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
}

func TestPostFixRejectsGarbage(t *testing.T) {
	router, svc := newTestRouter(&stubProvider{}, &stubGeocoder{})
	defer svc.Destroy()

	w := doRequest(t, router, http.MethodPost, "/api/location/fix", `{"lat": "north"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
}

func TestRefreshWithoutFallback(t *testing.T) {
	router, svc := newTestRouter(&stubProvider{err: geoloc.ErrTimeout}, &stubGeocoder{})
	defer svc.Destroy()

	w := doRequest(t, router, http.MethodPost, "/api/location/refresh", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

func TestRefreshSuccess(t *testing.T) {
	router, svc := newTestRouter(&stubProvider{
		fix: geoloc.Fix{Lat: 1, Lng: 2, ObservedAt: time.Now()},
	}, &stubGeocoder{})
	defer svc.Destroy()

	w := doRequest(t, router, http.MethodPost, "/api/location/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

func TestSearch(t *testing.T) {
	router, svc := newTestRouter(&stubProvider{}, &stubGeocoder{
		places: []geocode.Place{{Name: "Paris, Île-de-France, France"}},
	})
	defer svc.Destroy()

	w := doRequest(t, router, http.MethodGet, "/api/location/search?q=Paris&limit=3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Results []geocode.Place `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
}

func TestSearchBothBackendsDown(t *testing.T) {
	router, svc := newTestRouter(&stubProvider{}, &stubGeocoder{err: errors.New("down")})
	defer svc.Destroy()

	w := doRequest(t, router, http.MethodGet, "/api/location/search?q=Paris", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status %d", w.Code)
	}
}

func TestChatUnconfigured(t *testing.T) {
	router, svc := newTestRouter(&stubProvider{}, &stubGeocoder{})
	defer svc.Destroy()

	w := doRequest(t, router, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", w.Code)
	}
}

func TestCreateTabValidation(t *testing.T) {
	router, svc := newTestRouter(&stubProvider{}, &stubGeocoder{})
	defer svc.Destroy()

	w := doRequest(t, router, http.MethodPost, "/api/tabs", `{"title":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
}
