// README: Geocoder abstraction shared by the Google and Nominatim backends.
package geocode

import (
	"context"
	"strings"

	"pipdash/internal/types"
)

// Place is a normalized geocoding result from either backend.
type Place struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	types.Point
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// Geocoder converts between coordinates and human-readable places.
type Geocoder interface {
	// Reverse resolves coordinates to a place. The returned Place always
	// carries a non-empty Name on success.
	Reverse(ctx context.Context, lat, lng float64) (Place, error)
	// Search performs forward geocoding of a free-text query.
	Search(ctx context.Context, query string, limit int) ([]Place, error)
}

// composeName builds "city, state, country" from whatever parts are present,
// falling back to the provider's full display name.
func composeName(city, state, country, displayName string) string {
	var parts []string
	for _, p := range []string{city, state, country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return displayName
	}
	return strings.Join(parts, ", ")
}
