// README: Location service: poll lifecycle, circuit breaker, and listener fan-out.
package location

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"pipdash/internal/config"
	"pipdash/internal/geocode"
	"pipdash/internal/geoloc"
	"pipdash/internal/notify"
)

// Fix request knobs, mirroring a browser getCurrentPosition call: no high
// accuracy, 30s timeout, cached positions up to 5 minutes old accepted.
const (
	fixTimeout = 30 * time.Second
	fixMaxAge  = 5 * time.Minute
)

const defaultSearchLimit = 8

var ErrNoFallback = errors.New("location: refresh failed and no stored location to fall back to")

// Listener receives every state change as a (sample, status) pair. sample is
// nil while no fix is known; status is never omitted. Listeners run in
// registration order within the service's own notify pass.
type Listener func(sample *Sample, status Status)

// PersistFunc durably stores a fix in the remote settings store. It is
// called off the notify path; failures are logged, never surfaced.
type PersistFunc func(ctx context.Context, lat, lng float64, name string) error

type listenerEntry struct {
	id int
	fn Listener
}

// Service owns the polling lifecycle, the circuit breaker, and the fan-out
// of location changes to subscribers. Construct one per process and hand it
// to consumers; all methods are safe for concurrent use.
type Service struct {
	provider  geoloc.Provider
	primary   geocode.Geocoder // nil when no API key is configured
	fallback  geocode.Geocoder
	persist   PersistFunc
	notifier  notify.Notifier
	toastRate float64

	nowFn    func() time.Time
	tickUnit time.Duration

	mu           sync.Mutex
	settings     Settings
	sample       *Sample
	listeners    []listenerEntry
	nextID       int
	running      bool
	stopCh       chan struct{}
	pollBusy     bool
	settingsBusy bool
	brk          breaker
}

func NewService(provider geoloc.Provider, primary, fallback geocode.Geocoder, persist PersistFunc, notifier notify.Notifier, cfg config.LocationConfig) *Service {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Service{
		provider:  provider,
		primary:   primary,
		fallback:  fallback,
		persist:   persist,
		notifier:  notifier,
		toastRate: cfg.ErrorToastSampleRate,
		nowFn:     time.Now,
		tickUnit:  time.Minute,
		settings: Settings{
			FrequencyMinutes: clampFrequency(cfg.DefaultFrequencyMinutes),
		},
	}
}

// Subscribe registers a listener and returns its disposer.
func (s *Service) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.listeners {
			if e.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// fanOut invokes every listener with the given pair, in registration order.
func (s *Service) fanOut(sample *Sample, status Status) {
	s.mu.Lock()
	entries := make([]listenerEntry, len(s.listeners))
	copy(entries, s.listeners)
	s.mu.Unlock()

	for _, e := range entries {
		e.fn(sample, status)
	}
}

// emitCurrent fans out the current (sample, status) pair.
func (s *Service) emitCurrent() {
	s.mu.Lock()
	sample := s.sample
	enabled := s.settings.Enabled
	s.mu.Unlock()
	s.fanOut(sample, deriveStatus(enabled, sample, s.nowFn()))
}

// UpdateSettings applies a configuration push from the settings store. A
// call arriving while another is in flight is dropped (logged, not queued)
// so stop/start sequences cannot interleave.
func (s *Service) UpdateSettings(ctx context.Context, next Settings) {
	s.mu.Lock()
	if s.settingsBusy {
		s.mu.Unlock()
		log.Printf("location: settings update already in flight, dropping")
		return
	}
	s.settingsBusy = true
	prev := s.settings
	next.FrequencyMinutes = clampFrequency(next.FrequencyMinutes)
	s.settings = next

	// A settings push that carries a last-known fix seeds the sample slot
	// immediately so subscribers get something without waiting for GPS.
	seeded := false
	if next.Lat != nil && next.Lng != nil {
		s.sample = &Sample{
			Lat:  *next.Lat,
			Lng:  *next.Lng,
			Name: next.Name,
			TsMs: s.nowFn().UnixMilli(),
		}
		seeded = true
	}
	s.mu.Unlock()

	if seeded {
		s.emitCurrent()
	}

	switch {
	case !prev.Enabled && next.Enabled:
		s.Start(ctx)
	case prev.Enabled && !next.Enabled:
		s.Stop()
	case next.Enabled && prev.FrequencyMinutes != next.FrequencyMinutes:
		s.Stop()
		s.Start(ctx)
	}

	s.mu.Lock()
	s.settingsBusy = false
	s.mu.Unlock()
}

// Start begins the polling loop. Any existing loop is torn down first, so
// calling Start twice never leaves two timers running. The stored sample is
// emitted synchronously before the first fresh poll resolves.
func (s *Service) Start(ctx context.Context) {
	// The loop outlives the caller, which is often an HTTP request whose
	// context is cancelled the moment the handler returns. Detach from
	// that cancellation; stopCh is the only shutdown signal.
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	if s.stopCh != nil {
		close(s.stopCh)
	}
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	s.running = true

	// Reconstruct a sample from persisted settings so subscribers never
	// wait for the first fix.
	if s.sample == nil && s.settings.Lat != nil && s.settings.Lng != nil {
		s.sample = &Sample{
			Lat:  *s.settings.Lat,
			Lng:  *s.settings.Lng,
			Name: s.settings.Name,
			TsMs: s.nowFn().UnixMilli(),
		}
	}
	sample := s.sample
	enabled := s.settings.Enabled
	interval := time.Duration(s.settings.FrequencyMinutes) * s.tickUnit
	s.mu.Unlock()

	if sample != nil {
		s.fanOut(sample, deriveStatus(enabled, sample, s.nowFn()))
	}

	go func() {
		_ = s.poll(ctx, false)

		s.mu.Lock()
		arm := s.running && s.stopCh == stopCh && !s.brk.open
		s.mu.Unlock()
		if !arm {
			return
		}
		s.run(ctx, stopCh, interval)
	}()
}

func (s *Service) run(ctx context.Context, stopCh chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			_ = s.poll(ctx, false)
		}
	}
}

// Stop halts the polling loop. Fixes already in flight resolve into no-ops.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	s.running = false
	s.mu.Unlock()
}

// Destroy stops the loop and drops all listeners. Used at teardown.
func (s *Service) Destroy() {
	s.Stop()
	s.mu.Lock()
	s.listeners = nil
	s.mu.Unlock()
}

// Refresh runs one poll tick on demand. It falls back silently to the
// stored sample on failure and errors only when no fallback exists.
func (s *Service) Refresh(ctx context.Context) error {
	return s.poll(ctx, true)
}

// poll is the single critical section shared by the timer and Refresh.
// Overlapping invocations are serialized by the pollBusy flag: a poll
// arriving while one is in flight is dropped.
func (s *Service) poll(ctx context.Context, manual bool) error {
	now := s.nowFn()

	s.mu.Lock()
	if !s.running && !manual {
		s.mu.Unlock()
		return nil
	}
	if s.pollBusy {
		s.mu.Unlock()
		log.Printf("location: poll already in flight, skipping")
		return nil
	}
	if !s.brk.allow(now) {
		// Breaker open inside the backoff window: skip the provider and
		// keep dependent UI fed with the last known sample.
		sample := s.sample
		s.mu.Unlock()
		if sample != nil {
			s.fanOut(sample, StatusActive)
			return nil
		}
		if manual {
			return ErrNoFallback
		}
		return nil
	}
	probe := s.brk.open
	s.pollBusy = true
	s.mu.Unlock()

	fix, err := s.provider.Position(ctx, geoloc.Options{Timeout: fixTimeout, MaximumAge: fixMaxAge})

	s.mu.Lock()
	s.pollBusy = false
	if !s.running && !manual {
		// Stopped while the fix was in flight; discard the result.
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		opened := s.brk.fail(s.nowFn())
		sample := s.sample
		enabled := s.settings.Enabled
		s.mu.Unlock()

		log.Printf("location: fix failed: %v", err)
		if opened {
			s.notifier.Notify(notify.LevelWarning,
				"Location temporarily unavailable",
				"Position requests are paused after repeated failures; showing the last known location.")
		} else if rand.Float64() < s.toastRate {
			s.notifier.Notify(notify.LevelInfo, "Location update failed", err.Error())
		}

		if sample != nil {
			s.fanOut(sample, deriveStatus(enabled, sample, s.nowFn()))
			return nil
		}
		if manual {
			return err
		}
		return nil
	}
	s.mu.Unlock()

	s.applyFix(fix, probe)
	return nil
}

// GetCurrentLocation requests one fix directly from the provider. Unlike the
// polling path, errors propagate to the caller.
func (s *Service) GetCurrentLocation(ctx context.Context) (Sample, error) {
	fix, err := s.provider.Position(ctx, geoloc.Options{Timeout: fixTimeout, MaximumAge: fixMaxAge})
	if err != nil {
		return Sample{}, err
	}
	return s.applyFix(fix, false), nil
}

// ApplyDeviceFix accepts a fix pushed by the dashboard (browser geolocation
// forwarded over HTTP). It counts as a direct success for the breaker.
func (s *Service) ApplyDeviceFix(fix geoloc.Fix) Sample {
	return s.applyFix(fix, false)
}

// applyFix swaps the new sample into the slot, settles the breaker, notifies
// listeners, then kicks off geocode enrichment and the durable write in the
// background so subscribers see the coordinate immediately.
func (s *Service) applyFix(fix geoloc.Fix, probe bool) Sample {
	ts := fix.ObservedAt
	if ts.IsZero() {
		ts = s.nowFn()
	}

	s.mu.Lock()
	s.brk.succeed(probe)
	prevName := ""
	if s.sample != nil {
		prevName = s.sample.Name
	}
	sample := &Sample{
		Lat:       fix.Lat,
		Lng:       fix.Lng,
		AccuracyM: fix.AccuracyM,
		TsMs:      ts.UnixMilli(),
		Name:      prevName,
	}
	s.sample = sample
	enabled := s.settings.Enabled
	s.mu.Unlock()

	s.fanOut(sample, deriveStatus(enabled, sample, s.nowFn()))

	go s.enrichAndPersist(*sample)
	return *sample
}

// enrichAndPersist reverse-geocodes the fix and writes it to the settings
// store. Both are best-effort and run off the notify path.
func (s *Service) enrichAndPersist(sample Sample) {
	ctx, cancel := context.WithTimeout(context.Background(), fixTimeout)
	defer cancel()

	name := s.ReverseGeocode(ctx, sample.Lat, sample.Lng)
	if name != "" && name != sample.Name {
		sample.Name = name

		s.mu.Lock()
		if s.sample != nil && s.sample.TsMs == sample.TsMs {
			// Still the current fix; publish the enriched copy.
			enriched := sample
			s.sample = &enriched
			enabled := s.settings.Enabled
			s.mu.Unlock()
			s.fanOut(&enriched, deriveStatus(enabled, &enriched, s.nowFn()))
		} else {
			s.mu.Unlock()
		}
	}

	if s.persist == nil {
		return
	}
	if err := s.persist(ctx, sample.Lat, sample.Lng, sample.Name); err != nil {
		log.Printf("location: persist failed: %v", err)
	}
}

// ReverseGeocode resolves coordinates to a place name, trying the primary
// backend first and falling back to Nominatim. It never fails: both
// backends erroring yields an empty string.
func (s *Service) ReverseGeocode(ctx context.Context, lat, lng float64) string {
	if s.primary != nil {
		if p, err := s.primary.Reverse(ctx, lat, lng); err == nil {
			return p.Name
		} else {
			log.Printf("location: primary reverse geocode failed: %v", err)
		}
	}
	if s.fallback != nil {
		if p, err := s.fallback.Reverse(ctx, lat, lng); err == nil {
			return p.Name
		} else {
			log.Printf("location: fallback reverse geocode failed: %v", err)
		}
	}
	return ""
}

// SearchLocations forward-geocodes a free-text query through the same
// backend chain. A blank query returns no results without any I/O; unlike
// reverse geocoding, the error propagates when both backends fail.
func (s *Service) SearchLocations(ctx context.Context, query string, limit int) ([]geocode.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []geocode.Place{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var primaryErr error
	if s.primary != nil {
		places, err := s.primary.Search(ctx, query, limit)
		if err == nil {
			return places, nil
		}
		primaryErr = err
		log.Printf("location: primary search failed: %v", err)
	}
	if s.fallback != nil {
		places, err := s.fallback.Search(ctx, query, limit)
		if err == nil {
			return places, nil
		}
		return nil, err
	}
	if primaryErr != nil {
		return nil, primaryErr
	}
	return nil, errors.New("location: no geocoding backend configured")
}

// Status derives the current service status.
func (s *Service) Status() Status {
	s.mu.Lock()
	sample := s.sample
	enabled := s.settings.Enabled
	s.mu.Unlock()
	return deriveStatus(enabled, sample, s.nowFn())
}

// CurrentSample returns a copy of the last known sample, or nil.
func (s *Service) CurrentSample() *Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sample == nil {
		return nil
	}
	c := *s.sample
	return &c
}

// CurrentSettings returns the cached settings snapshot.
func (s *Service) CurrentSettings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Enabled
}
