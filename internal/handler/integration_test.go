package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/SergeiKhy/shortlink/internal/config"
	"github.com/SergeiKhy/shortlink/internal/handler"
	"github.com/SergeiKhy/shortlink/internal/middleware"
	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/repository"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// setupIntegrationEnv собирает всё приложение поверх PostgreSQL и Redis в контейнерах
func setupIntegrationEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	// Запускаем контейнер PostgreSQL
	dbContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("shortener"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbContainer.Terminate(context.Background()) })

	// Запускаем контейнер Redis
	redisContainer, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisContainer.Terminate(context.Background()) })

	dbHost, err := dbContainer.Host(ctx)
	require.NoError(t, err)
	dbPort, err := dbContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)
	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	dbConfig := config.DBConfig{
		Host:     dbHost,
		Port:     dbPort.Port(),
		User:     "user",
		Password: "password",
		Name:     "shortener",
	}
	require.NoError(t, repository.Migrate(dbConfig.DSN(), zap.NewNop()))

	db, err := repository.NewPostgresDB(dbConfig)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	redisClient, err := repository.NewRedisClient(config.RedisConfig{Host: redisHost, Port: redisPort.Port()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisClient.Close() })

	svc := service.NewShortenerService(
		repository.NewMappingRepository(db),
		repository.NewStatsCache(redisClient),
		time.Second,
		zap.NewNop(),
	)
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig)

	return &testEnv{router: handler.NewRouter(svc, rateLimiter, baseURL, zap.NewNop())}
}

// TestIntegration_ShortenRedirectStats проходит сценарий создания, перехода и статистики
func TestIntegration_ShortenRedirectStats(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupIntegrationEnv(t)
	code := env.shorten(t, "https://example.com")
	assert.Len(t, code, service.CodeLength)

	t.Run("невалидный URL", func(t *testing.T) {
		w := env.do("POST", "/shorten", `{"longUrl":"not a url"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"shortUrl":"Invalid URL format"}`, w.Body.String())
	})

	t.Run("редирект на оригинальный URL", func(t *testing.T) {
		w := env.do("GET", "/"+code, "")

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Location"))
	})

	t.Run("счётчик переходов", func(t *testing.T) {
		w := env.do("GET", "/api/stats/count/"+code, "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1", w.Body.String())
	})

	t.Run("топ ссылок", func(t *testing.T) {
		w := env.do("GET", "/api/stats/top", "")
		require.Equal(t, http.StatusOK, w.Code)

		var top []models.MappingStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &top))
		require.NotEmpty(t, top)
		assert.Equal(t, code, top[0].ShortCode)
		assert.Equal(t, int64(1), top[0].AccessCount)
	})

	t.Run("несуществующая ссылка", func(t *testing.T) {
		w := env.do("GET", "/zzzzzz", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("неизвестный код в статистике", func(t *testing.T) {
		w := env.do("GET", "/api/stats/count/zzzzzz", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.True(t, strings.Contains(w.Body.String(), "URL not found"))
	})
}
