package handler

import (
	"net/http"

	"github.com/SergeiKhy/shortlink/internal/middleware"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(
	shortenerService service.ShortenerService,
	rateLimiter *middleware.RateLimiter,
	baseURL string,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware для логгирования
	router.Use(func(c *gin.Context) {
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	urlHandler := NewURLHandler(shortenerService, baseURL, logger)
	statsHandler := NewStatsHandler(shortenerService, logger)

	router.GET("/hello", urlHandler.Hello)

	// Статистика и health без rate limiting
	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck)
		api.GET("/stats/top", statsHandler.Top)
		api.GET("/stats/count/:shortCode", statsHandler.Count)
	}

	// Создание и редирект проходят через общую корзину токенов
	limited := router.Group("/", rateLimiter.Middleware())
	{
		limited.POST("/shorten", urlHandler.Shorten)
		limited.GET("/:shortCode", urlHandler.Redirect)
	}

	return router
}

// HealthCheck godoc
// @Summary Health check
// @Tags misc
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "url-shortener",
	})
}
