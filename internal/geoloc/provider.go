// README: Position provider abstraction over the device geolocation capability.
package geoloc

import (
	"context"
	"errors"
	"time"
)

// Fix is a single geolocation reading.
type Fix struct {
	Lat        float64
	Lng        float64
	AccuracyM  float64
	ObservedAt time.Time
}

// Options mirror the knobs of a browser-style getCurrentPosition call.
type Options struct {
	HighAccuracy bool
	// Timeout bounds the whole request; zero means the provider default.
	Timeout time.Duration
	// MaximumAge allows a cached fix no older than this to be returned
	// without contacting the backend.
	MaximumAge time.Duration
}

var (
	ErrPermissionDenied    = errors.New("geoloc: permission denied — location access is blocked")
	ErrPositionUnavailable = errors.New("geoloc: position unavailable — no signal or backend failure")
	ErrTimeout             = errors.New("geoloc: timed out waiting for a position")
)

// Provider yields the current device position. Implementations map their
// native failure modes onto the three sentinel errors above.
type Provider interface {
	Position(ctx context.Context, opts Options) (Fix, error)
}
