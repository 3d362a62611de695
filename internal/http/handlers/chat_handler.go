// README: Chat assistant endpoint.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pipdash/internal/modules/chat"
)

type ChatHandler struct {
	chat *chat.Service
}

func NewChatHandler(svc *chat.Service) *ChatHandler {
	return &ChatHandler{chat: svc}
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *ChatHandler) Ask(c *gin.Context) {
	if h.chat == nil {
		writeError(c, http.StatusServiceUnavailable, "chat assistant is not configured")
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid chat payload")
		return
	}
	reply, err := h.chat.Ask(c.Request.Context(), req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		writeError(c, http.StatusBadGateway, "assistant unavailable")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"reply": reply})
}
