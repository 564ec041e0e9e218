package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gaslibhub/crawler/internal/stats"
	"github.com/gaslibhub/crawler/internal/storage"
)

// Handler handles API requests
type Handler struct {
	store     storage.Storage
	collector *stats.Collector
}

// NewHandler creates a new API handler
func NewHandler(store storage.Storage) *Handler {
	return &Handler{
		store:     store,
		collector: stats.NewCollector(store),
	}
}

// HealthCheck returns service health
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetStats returns catalog-level statistics
// GET /api/v1/stats
func (h *Handler) GetStats(c *gin.Context) {
	s, err := h.collector.Collect(c.Request.Context(), 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s})
}

// GetRecentLibraries returns the most recently updated catalog entries
// GET /api/v1/libraries/recent?limit=20
func (h *Handler) GetRecentLibraries(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 100"})
			return
		}
		limit = n
	}

	entries, err := h.store.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func respondError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
