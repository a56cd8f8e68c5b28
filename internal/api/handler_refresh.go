package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PostRefresh handles the POST /api/refresh request. The body is treated as
// an inbound command message; an empty body defaults to a plain refresh.
// Recognized commands trigger an immediate poll, anything else is logged by
// the poller and ignored, which is not an error to the caller.
func (h *Handler) PostRefresh(c *gin.Context) {
	msg := map[string]any{"command": "refresh"}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&msg); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	h.poller.HandleCommand(c.Request.Context(), msg)

	status, _ := h.tags.Get("last_poll_status")
	c.JSON(http.StatusAccepted, gin.H{"last_poll_status": status})
}
