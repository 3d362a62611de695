// README: Primary geocoding backend via the Google Maps Geocoding API.
package geocode

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"pipdash/internal/types"
)

// GoogleGeocoder wraps the Google Maps Geocoding API.
type GoogleGeocoder struct {
	client *maps.Client
}

// NewGoogleGeocoder creates a GoogleGeocoder with the given API key.
func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleGeocoder{client: client}, nil
}

func (g *GoogleGeocoder) Reverse(ctx context.Context, lat, lng float64) (Place, error) {
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	})
	if err != nil {
		return Place{}, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return Place{}, fmt.Errorf("no reverse geocoding result for %.5f,%.5f", lat, lng)
	}
	p := fromGeocodingResult(results[0])
	if p.Name == "" {
		return Place{}, fmt.Errorf("empty place name for %.5f,%.5f", lat, lng)
	}
	return p, nil
}

func (g *GoogleGeocoder) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: query})
	if err != nil {
		return nil, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) > limit {
		results = results[:limit]
	}
	places := make([]Place, 0, len(results))
	for _, r := range results {
		places = append(places, fromGeocodingResult(r))
	}
	return places, nil
}

// fromGeocodingResult normalizes a Google result, pulling city/state/country
// out of the address components.
func fromGeocodingResult(r maps.GeocodingResult) Place {
	p := Place{
		DisplayName: r.FormattedAddress,
		Point:       types.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
	}
	for _, c := range r.AddressComponents {
		for _, t := range c.Types {
			switch t {
			case "locality", "postal_town":
				if p.City == "" {
					p.City = c.LongName
				}
			case "administrative_area_level_1":
				p.State = c.ShortName
			case "country":
				p.Country = c.LongName
			}
		}
	}
	p.Name = composeName(p.City, p.State, p.Country, p.DisplayName)
	return p
}
