package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"livelink-telematics-backend/internal/poller"
)

// GetTags handles the GET /api/tags request: the full current tag snapshot.
func (h *Handler) GetTags(c *gin.Context) {
	c.JSON(http.StatusOK, h.tags.Snapshot())
}

// GetTag handles the GET /api/tags/{name} request.
func (h *Handler) GetTag(c *gin.Context) {
	name := c.Param("name")
	value, ok := h.tags.Get(name)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "tag not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "value": value})
}

// GetMachines handles the GET /api/machines request by decoding the fleet
// summary tag published on the last successful poll.
func (h *Handler) GetMachines(c *gin.Context) {
	value, ok := h.tags.Get("machines")
	if !ok {
		c.JSON(http.StatusOK, map[string]poller.Summary{})
		return
	}

	raw, ok := value.(string)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "machines tag has unexpected shape"})
		return
	}

	var summary map[string]poller.Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "machines tag is not valid JSON"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
