// README: Location endpoints: state, settings, refresh, fix push, search.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pipdash/internal/geoloc"
	"pipdash/internal/modules/location"
)

type LocationHandler struct {
	location *location.Service
	store    *location.Store
}

func NewLocationHandler(svc *location.Service, store *location.Store) *LocationHandler {
	return &LocationHandler{location: svc, store: store}
}

// Get returns the current sample (possibly null) and derived status.
func (h *LocationHandler) Get(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{
		"sample": h.location.CurrentSample(),
		"status": h.location.Status(),
	})
}

// GetSettings returns the cached settings snapshot.
func (h *LocationHandler) GetSettings(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.location.CurrentSettings())
}

// PutSettings persists new settings and pushes them into the service.
func (h *LocationHandler) PutSettings(c *gin.Context) {
	var s location.Settings
	if err := c.ShouldBindJSON(&s); err != nil {
		writeError(c, http.StatusBadRequest, "invalid settings payload")
		return
	}
	if h.store != nil {
		if err := h.store.SaveSettings(c.Request.Context(), s); err != nil {
			writeError(c, http.StatusInternalServerError, "failed to persist settings")
			return
		}
	}
	h.location.UpdateSettings(c.Request.Context(), s)
	writeJSON(c, http.StatusOK, h.location.CurrentSettings())
}

// Refresh triggers one manual poll. Unlike the scheduled loop it reports
// failure when no fallback location exists.
func (h *LocationHandler) Refresh(c *gin.Context) {
	if err := h.location.Refresh(c.Request.Context()); err != nil {
		if errors.Is(err, location.ErrNoFallback) {
			writeError(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(c, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"sample": h.location.CurrentSample(),
		"status": h.location.Status(),
	})
}

// Lat/Lng are pointers so that presence is checked, not non-zero value;
// 0,0 is a legal coordinate.
type fixRequest struct {
	Lat       *float64 `json:"lat" binding:"required"`
	Lng       *float64 `json:"lng" binding:"required"`
	AccuracyM float64  `json:"accuracy_m"`
	TsMs      int64    `json:"ts_ms"`
}

// PostFix accepts a device fix forwarded by the dashboard (browser
// geolocation), bypassing the server-side provider.
func (h *LocationHandler) PostFix(c *gin.Context) {
	var req fixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid fix payload")
		return
	}
	fix := geoloc.Fix{Lat: *req.Lat, Lng: *req.Lng, AccuracyM: req.AccuracyM}
	if req.TsMs > 0 {
		fix.ObservedAt = time.UnixMilli(req.TsMs)
	}
	sample := h.location.ApplyDeviceFix(fix)
	writeJSON(c, http.StatusOK, gin.H{"sample": sample, "status": h.location.Status()})
}

// Search forward-geocodes a free-text query.
func (h *LocationHandler) Search(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	places, err := h.location.SearchLocations(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		writeError(c, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"results": places})
}
