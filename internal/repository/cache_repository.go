package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SergeiKhy/shortlink/internal/models"
)

const topStatsKey = "stats:top"

// StatsCache кэш списка самых посещаемых ссылок
type StatsCache interface {
	GetTop(ctx context.Context) ([]models.UrlMapping, error)
	SetTop(ctx context.Context, mappings []models.UrlMapping, ttl time.Duration) error
}

type statsCache struct {
	redis *RedisDB
}

func NewStatsCache(redis *RedisDB) StatsCache {
	return &statsCache{redis: redis}
}

func (r *statsCache) GetTop(ctx context.Context) ([]models.UrlMapping, error) {
	data, err := r.redis.Client.Get(ctx, topStatsKey).Bytes()
	if err != nil {
		return nil, err
	}

	var mappings []models.UrlMapping
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal top mappings: %w", err)
	}

	return mappings, nil
}

func (r *statsCache) SetTop(ctx context.Context, mappings []models.UrlMapping, ttl time.Duration) error {
	data, err := json.Marshal(mappings)
	if err != nil {
		return fmt.Errorf("failed to marshal top mappings: %w", err)
	}

	return r.redis.Client.Set(ctx, topStatsKey, data, ttl).Err()
}
