package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig конфигурация rate limiter
type RateLimiterConfig struct {
	Capacity int           // Размер корзины токенов
	Window   time.Duration // За это время корзина восстанавливается полностью
}

// DefaultRateLimiterConfig конфигурация по умолчанию
var DefaultRateLimiterConfig = RateLimiterConfig{
	Capacity: 10, // 10 запросов
	Window:   time.Minute,
}

// RateLimiter одна общая на процесс корзина токенов (Token Bucket).
// Токены возвращаются непрерывно, по одному каждые Window/Capacity.
type RateLimiter struct {
	config  RateLimiterConfig
	limiter *rate.Limiter
}

// NewRateLimiter создаёт новый rate limiter с полной корзиной
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Capacity <= 0 {
		config.Capacity = DefaultRateLimiterConfig.Capacity
	}
	if config.Window <= 0 {
		config.Window = DefaultRateLimiterConfig.Window
	}

	refill := rate.Every(config.Window / time.Duration(config.Capacity))

	return &RateLimiter{
		config:  config,
		limiter: rate.NewLimiter(refill, config.Capacity),
	}
}

// Allow забирает один токен, если он есть. Безопасен для конкурентного вызова.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowAt(time.Now())
}

// AllowAt то же, что Allow, но для заданного момента времени
func (rl *RateLimiter) AllowAt(t time.Time) bool {
	return rl.limiter.AllowN(t, 1)
}

// retryAfter время до появления следующего токена, округлённое вверх до секунды
func (rl *RateLimiter) retryAfter() int {
	perToken := rl.config.Window / time.Duration(rl.config.Capacity)
	return int(math.Ceil(perToken.Seconds()))
}

// Middleware возвращает Gin middleware handler для rate limiting
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow() {
			retryAfter := rl.retryAfter()
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests",
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
