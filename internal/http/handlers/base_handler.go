// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pipdash/internal/modules/widgets"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeWidgetsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, widgets.ErrBadRequest), errors.Is(err, widgets.ErrUnknownType):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, widgets.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
