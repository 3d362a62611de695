// README: Location sample/settings models and status derivation.
package location

import "time"

// Status is the derived health of the location service.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusLoading  Status = "loading"
	StatusError    Status = "error"
)

// Freshness windows for status derivation.
const (
	freshWindow = 45 * time.Second
	staleWindow = 120 * time.Second
)

// Sample is a single fix, either fresh from the position provider or
// reconstructed from persisted settings. Immutable once created; the service
// swaps whole samples in its last-known slot.
type Sample struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	AccuracyM float64 `json:"accuracy_m,omitempty"`
	// TsMs is the fix time in epoch milliseconds.
	TsMs int64 `json:"ts_ms"`
	// Name is the reverse-geocoded place name, empty until enrichment runs.
	Name string `json:"name,omitempty"`
}

func (s Sample) age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(s.TsMs))
}

// Settings is the service configuration owned by the remote settings store.
// External updates are authoritative configuration pushes.
type Settings struct {
	Enabled bool `json:"enabled"`
	// Lat/Lng carry the last persisted fix, if any.
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
	Name string   `json:"name,omitempty"`
	// FrequencyMinutes is the poll interval, clamped to [1,60].
	FrequencyMinutes int `json:"frequency_minutes"`
}

const (
	minFrequencyMinutes = 1
	maxFrequencyMinutes = 60
)

func clampFrequency(minutes int) int {
	if minutes < minFrequencyMinutes {
		return minFrequencyMinutes
	}
	if minutes > maxFrequencyMinutes {
		return maxFrequencyMinutes
	}
	return minutes
}

// deriveStatus computes the reported status. The service never reports
// active without a sample.
func deriveStatus(enabled bool, sample *Sample, now time.Time) Status {
	if !enabled {
		return StatusInactive
	}
	if sample == nil {
		return StatusLoading
	}
	switch age := sample.age(now); {
	case age < freshWindow:
		return StatusActive
	case age < staleWindow:
		return StatusLoading
	default:
		return StatusError
	}
}
