package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/SergeiKhy/shortlink/internal/config"
	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// setupPostgres поднимает PostgreSQL в контейнере и применяет миграции
func setupPostgres(t *testing.T) *repository.PostgresDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
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
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.DBConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "user",
		Password: "password",
		Name:     "shortener",
	}

	require.NoError(t, repository.Migrate(cfg.DSN(), zap.NewNop()))
	// Повторный запуск не должен падать
	require.NoError(t, repository.Migrate(cfg.DSN(), zap.NewNop()))

	db, err := repository.NewPostgresDB(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return db
}

// setupRedis поднимает Redis в контейнере
func setupRedis(t *testing.T) *repository.RedisDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	ctx := context.Background()
	container, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := repository.NewRedisClient(config.RedisConfig{Host: host, Port: port.Port()})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

// TestIntegration_MappingRepository проверяет репозиторий на настоящем PostgreSQL
func TestIntegration_MappingRepository(t *testing.T) {
	db := setupPostgres(t)
	repo := repository.NewMappingRepository(db)
	ctx := context.Background()

	created := &models.UrlMapping{
		ShortCode: "abc123",
		LongURL:   "https://example.com",
		CreatedAt: time.Now(),
	}

	t.Run("вставка", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, created))
		assert.NotZero(t, created.ID)
	})

	t.Run("поиск по коду", func(t *testing.T) {
		found, err := repo.FindByShortCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "https://example.com", found.LongURL)
		assert.Zero(t, found.AccessCount)
	})

	t.Run("дубликат кода", func(t *testing.T) {
		duplicate := &models.UrlMapping{
			ShortCode: "abc123",
			LongURL:   "https://other.com",
			CreatedAt: time.Now(),
		}
		err := repo.Save(ctx, duplicate)
		assert.ErrorIs(t, err, repository.ErrCodeExists)

		found, err := repo.FindByShortCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", found.LongURL)
	})

	t.Run("обновление счётчика", func(t *testing.T) {
		found, err := repo.FindByShortCode(ctx, "abc123")
		require.NoError(t, err)

		found.AccessCount++
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByShortCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, int64(1), reloaded.AccessCount)
	})

	t.Run("счётчик не уменьшается", func(t *testing.T) {
		stale := &models.UrlMapping{ID: created.ID, ShortCode: "abc123", AccessCount: 0}
		require.NoError(t, repo.Save(ctx, stale))
		assert.Equal(t, int64(1), stale.AccessCount)
	})

	t.Run("обновление несуществующей записи", func(t *testing.T) {
		err := repo.Save(ctx, &models.UrlMapping{ID: 999999, AccessCount: 5})
		assert.ErrorIs(t, err, repository.ErrMappingNotFound)
	})

	t.Run("несуществующий код", func(t *testing.T) {
		_, err := repo.FindByShortCode(ctx, "nonexistent")
		assert.ErrorIs(t, err, repository.ErrMappingNotFound)
	})
}

// TestIntegration_TopByAccessCount проверяет сортировку и лимит топа
func TestIntegration_TopByAccessCount(t *testing.T) {
	db := setupPostgres(t)
	repo := repository.NewMappingRepository(db)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		m := &models.UrlMapping{
			ShortCode:   fmt.Sprintf("code%02d", i),
			LongURL:     fmt.Sprintf("https://example.com/%d", i),
			CreatedAt:   time.Now(),
			AccessCount: int64((i * 5) % 7),
		}
		require.NoError(t, repo.Save(ctx, m))
	}

	top, err := repo.TopByAccessCount(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, top, 10)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].AccessCount, top[i].AccessCount)
	}
}

// TestIntegration_StatsCache проверяет кэш топа на настоящем Redis
func TestIntegration_StatsCache(t *testing.T) {
	client := setupRedis(t)
	cache := repository.NewStatsCache(client)
	ctx := context.Background()

	_, err := cache.GetTop(ctx)
	assert.Error(t, err, "пустой кэш должен давать промах")

	top := []models.UrlMapping{
		{ID: 2, ShortCode: "short2", LongURL: "https://example2.com", AccessCount: 200, CreatedAt: time.Now().UTC().Truncate(time.Second)},
		{ID: 1, ShortCode: "short1", LongURL: "https://example1.com", AccessCount: 100, CreatedAt: time.Now().UTC().Truncate(time.Second)},
	}
	require.NoError(t, cache.SetTop(ctx, top, time.Minute))

	cached, err := cache.GetTop(ctx)
	require.NoError(t, err)
	assert.Equal(t, top, cached)

	ttl, err := client.Client.TTL(ctx, "stats:top").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
