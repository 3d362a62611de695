// README: Fallback geocoding backend via the public OpenStreetMap Nominatim API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"pipdash/internal/types"
)

// NominatimGeocoder talks to a Nominatim-compatible HTTP endpoint. It is the
// keyless fallback used when the Google backend is unavailable or not
// configured.
type NominatimGeocoder struct {
	base   string
	client *http.Client
}

func NewNominatimGeocoder(base string) *NominatimGeocoder {
	return &NominatimGeocoder{base: base, client: &http.Client{}}
}

type nominatimAddress struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type nominatimResult struct {
	DisplayName string           `json:"display_name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Address     nominatimAddress `json:"address"`
}

func (n *NominatimGeocoder) Reverse(ctx context.Context, lat, lng float64) (Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', 6, 64))

	var res nominatimResult
	if err := n.get(ctx, "/reverse", q, &res); err != nil {
		return Place{}, err
	}
	p := fromNominatimResult(res)
	if p.Name == "" {
		return Place{}, fmt.Errorf("nominatim: empty result for %.5f,%.5f", lat, lng)
	}
	return p, nil
}

func (n *NominatimGeocoder) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("addressdetails", "1")

	var res []nominatimResult
	if err := n.get(ctx, "/search", q, &res); err != nil {
		return nil, err
	}
	places := make([]Place, 0, len(res))
	for _, r := range res {
		places = append(places, fromNominatimResult(r))
	}
	return places, nil
}

func (n *NominatimGeocoder) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.base+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("nominatim: %w", err)
	}
	// Nominatim's usage policy requires an identifying UA.
	req.Header.Set("User-Agent", "pipdash/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("nominatim: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("nominatim: decode: %w", err)
	}
	return nil
}

func fromNominatimResult(r nominatimResult) Place {
	lat, _ := strconv.ParseFloat(r.Lat, 64)
	lng, _ := strconv.ParseFloat(r.Lon, 64)

	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}

	p := Place{
		DisplayName: r.DisplayName,
		Point:       types.Point{Lat: lat, Lng: lng},
		City:        city,
		State:       r.Address.State,
		Country:     r.Address.Country,
	}
	p.Name = composeName(p.City, p.State, p.Country, p.DisplayName)
	return p
}
