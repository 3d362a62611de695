// README: Tab and widget CRUD endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pipdash/internal/modules/widgets"
)

type WidgetHandler struct {
	widgets *widgets.Service
}

func NewWidgetHandler(svc *widgets.Service) *WidgetHandler {
	return &WidgetHandler{widgets: svc}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

type createTabRequest struct {
	Title    string `json:"title"`
	Position int    `json:"position"`
}

func (h *WidgetHandler) CreateTab(c *gin.Context) {
	var req createTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid tab payload")
		return
	}
	tab, err := h.widgets.CreateTab(c.Request.Context(), widgets.CreateTabCommand{
		Title:    req.Title,
		Position: req.Position,
	})
	if err != nil {
		writeWidgetsError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, tab)
}

func (h *WidgetHandler) ListTabs(c *gin.Context) {
	tabs, err := h.widgets.ListTabs(c.Request.Context())
	if err != nil {
		writeWidgetsError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"tabs": tabs})
}

func (h *WidgetHandler) DeleteTab(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.widgets.DeleteTab(c.Request.Context(), id); err != nil {
		writeWidgetsError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createWidgetRequest struct {
	TabID     int64             `json:"tab_id"`
	Type      string            `json:"type"`
	Placement widgets.Placement `json:"placement"`
	Settings  json.RawMessage   `json:"settings"`
}

func (h *WidgetHandler) CreateWidget(c *gin.Context) {
	var req createWidgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid widget payload")
		return
	}
	w, err := h.widgets.CreateWidget(c.Request.Context(), widgets.CreateWidgetCommand{
		TabID:     req.TabID,
		Type:      req.Type,
		Placement: req.Placement,
		Settings:  req.Settings,
	})
	if err != nil {
		writeWidgetsError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, w)
}

func (h *WidgetHandler) ListWidgets(c *gin.Context) {
	tabID, err := strconv.ParseInt(c.Query("tab_id"), 10, 64)
	if err != nil || tabID <= 0 {
		writeError(c, http.StatusBadRequest, "missing or invalid tab_id")
		return
	}
	list, err := h.widgets.ListWidgets(c.Request.Context(), tabID)
	if err != nil {
		writeWidgetsError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"widgets": list})
}

func (h *WidgetHandler) UpdateSettings(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var settings json.RawMessage
	if err := c.ShouldBindJSON(&settings); err != nil {
		writeError(c, http.StatusBadRequest, "invalid settings payload")
		return
	}
	w, err := h.widgets.UpdateSettings(c.Request.Context(), widgets.UpdateSettingsCommand{
		WidgetID: id,
		Settings: settings,
	})
	if err != nil {
		writeWidgetsError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, w)
}

func (h *WidgetHandler) UpdatePlacement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var p widgets.Placement
	if err := c.ShouldBindJSON(&p); err != nil {
		writeError(c, http.StatusBadRequest, "invalid placement payload")
		return
	}
	w, err := h.widgets.UpdatePlacement(c.Request.Context(), widgets.UpdatePlacementCommand{
		WidgetID:  id,
		Placement: p,
	})
	if err != nil {
		writeWidgetsError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, w)
}

func (h *WidgetHandler) DeleteWidget(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.widgets.DeleteWidget(c.Request.Context(), id); err != nil {
		writeWidgetsError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
