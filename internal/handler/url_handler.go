package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	invalidURLMessage  = "Invalid URL format"
	unavailableMessage = "Service is currently unavailable. Please try again later."
)

type URLHandler struct {
	service service.ShortenerService
	baseURL string
	logger  *zap.Logger
}

func NewURLHandler(service service.ShortenerService, baseURL string, logger *zap.Logger) *URLHandler {
	return &URLHandler{
		service: service,
		baseURL: baseURL,
		logger:  logger,
	}
}

type ShortenResponse struct {
	ShortURL string `json:"shortUrl"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Hello godoc
// @Summary Liveness greeting
// @Tags misc
// @Produce plain
// @Success 200 {string} string "hello world"
// @Router /hello [get]
func (h *URLHandler) Hello(c *gin.Context) {
	c.String(http.StatusOK, "hello world")
}

// Shorten godoc
// @Summary Create a short link
// @Description Create a new shortened URL for an absolute URL
// @Tags links
// @Accept json
// @Produce json
// @Param request body models.ShortenInput true "Long URL"
// @Success 200 {object} ShortenResponse
// @Failure 400 {object} ShortenResponse
// @Failure 429 {object} ErrorResponse
// @Failure 503 {object} ShortenResponse
// @Router /shorten [post]
func (h *URLHandler) Shorten(c *gin.Context) {
	var req models.ShortenInput
	if err := c.ShouldBindJSON(&req); err != nil || !isAbsoluteURL(req.LongURL) {
		h.logger.Warn("Invalid long URL", zap.String("long_url", req.LongURL), zap.Error(err))
		c.JSON(http.StatusBadRequest, ShortenResponse{ShortURL: invalidURLMessage})
		return
	}

	code, err := h.service.CreateShortURL(c.Request.Context(), req.LongURL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			c.JSON(http.StatusBadRequest, ShortenResponse{ShortURL: invalidURLMessage})
		default:
			h.logger.Error("Failed to create short URL", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, ShortenResponse{ShortURL: unavailableMessage})
		}
		return
	}

	c.JSON(http.StatusOK, ShortenResponse{ShortURL: h.baseURL + "/" + code})
}

// Redirect godoc
// @Summary Redirect to original URL
// @Description Redirect to the original URL by short code and count the access
// @Tags links
// @Param shortCode path string true "Short code"
// @Success 302
// @Failure 404 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /{shortCode} [get]
func (h *URLHandler) Redirect(c *gin.Context) {
	code := c.Param("shortCode")

	longURL, err := h.service.GetOriginalURL(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "URL not found",
			})
			return
		}

		h.logger.Error("Failed to resolve short code", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "service_unavailable",
			Message: unavailableMessage,
		})
		return
	}

	c.Redirect(http.StatusFound, longURL)
}

// isAbsoluteURL проверяет, что у URL разбираются схема и хост
func isAbsoluteURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
