package api

import (
	"net/http"

	"github.com/codecollab-io/codecollab/log"
	"github.com/gin-gonic/gin"
)

// GetAIResult handles GET /ai/get-result?prompt=...
// Direct request/response access to the completion engine, outside any room.
func (h *Handlers) GetAIResult(c *gin.Context) {
	prompt := c.Query("prompt")
	if prompt == "" {
		RespondBadRequest(c, "prompt is required")
		return
	}

	if h.Agent == nil {
		RespondError(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "AI agent is not configured")
		return
	}

	reply, err := h.Agent.Complete(c.Request.Context(), "", prompt)
	if err != nil {
		log.Error().Err(err).Msg("completion failed")
		RespondInternalError(c, "Failed to generate a reply")
		return
	}

	RespondData(c, reply)
}
