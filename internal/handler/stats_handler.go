package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StatsHandler struct {
	service service.ShortenerService
	logger  *zap.Logger
}

func NewStatsHandler(service service.ShortenerService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		logger:  logger,
	}
}

// Top godoc
// @Summary Most accessed links
// @Description Top 10 short links ordered by access count, descending
// @Tags stats
// @Produce json
// @Success 200 {array} models.MappingStats
// @Failure 503 {object} ErrorResponse
// @Router /api/stats/top [get]
func (h *StatsHandler) Top(c *gin.Context) {
	top, err := h.service.TopURLs(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get top URLs", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "service_unavailable",
			Message: unavailableMessage,
		})
		return
	}

	response := make([]models.MappingStats, 0, len(top))
	for i := range top {
		response = append(response, top[i].Stats())
	}

	c.JSON(http.StatusOK, response)
}

// Count godoc
// @Summary Access count of a short link
// @Tags stats
// @Produce json
// @Param shortCode path string true "Short code"
// @Success 200 {integer} int
// @Failure 404 {string} string "URL not found"
// @Failure 503 {object} ErrorResponse
// @Router /api/stats/count/{shortCode} [get]
func (h *StatsHandler) Count(c *gin.Context) {
	code := c.Param("shortCode")

	count, err := h.service.AccessCount(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, "URL not found")
			return
		}

		h.logger.Error("Failed to get access count", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "service_unavailable",
			Message: unavailableMessage,
		})
		return
	}

	c.JSON(http.StatusOK, count)
}
