// README: IP-geolocation HTTP adapter used when no device pushes fixes.
package geoloc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const defaultTimeout = 30 * time.Second

// IPProvider resolves a coarse position from the server's public IP via an
// ip-api.com compatible JSON endpoint. Accuracy is city-level at best, so
// AccuracyM is reported as a fixed pessimistic radius.
type IPProvider struct {
	endpoint string
	client   *http.Client

	mu       sync.Mutex
	lastFix  Fix
	haveLast bool
}

func NewIPProvider(endpoint string) *IPProvider {
	return &IPProvider{
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

type ipapiResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// ipAccuracyM is the radius reported for IP-derived fixes.
const ipAccuracyM = 25000.0

func (p *IPProvider) Position(ctx context.Context, opts Options) (Fix, error) {
	if opts.MaximumAge > 0 {
		p.mu.Lock()
		if p.haveLast && time.Since(p.lastFix.ObservedAt) <= opts.MaximumAge {
			fix := p.lastFix
			p.mu.Unlock()
			return fix, nil
		}
		p.mu.Unlock()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return Fix{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Fix{}, ErrTimeout
		}
		return Fix{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusUnauthorized:
		return Fix{}, ErrPermissionDenied
	case resp.StatusCode != http.StatusOK:
		return Fix{}, fmt.Errorf("%w: status %d", ErrPositionUnavailable, resp.StatusCode)
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Fix{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	if body.Status != "" && body.Status != "success" {
		return Fix{}, fmt.Errorf("%w: %s", ErrPositionUnavailable, body.Message)
	}

	fix := Fix{
		Lat:        body.Lat,
		Lng:        body.Lon,
		AccuracyM:  ipAccuracyM,
		ObservedAt: time.Now(),
	}
	p.mu.Lock()
	p.lastFix = fix
	p.haveLast = true
	p.mu.Unlock()
	return fix, nil
}
