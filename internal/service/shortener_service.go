package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/repository"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrInvalidURL         = errors.New("невалидный URL")
	ErrNotFound           = errors.New("короткая ссылка не найдена")
	ErrServiceUnavailable = errors.New("сервис временно недоступен")
)

// Константы сервиса
const (
	CodeLength          = 6
	TopLimit            = 10
	charset             = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	maxGenerateAttempts = 5
)

// Всё, что не входит в набор, вырезается из URL перед сохранением
var unsafeURLChars = regexp.MustCompile(`[^a-zA-Z0-9:/?&.=_%-]`)

// ShortenerService интерфейс сервиса коротких ссылок
type ShortenerService interface {
	CreateShortURL(ctx context.Context, longURL string) (string, error)
	GetOriginalURL(ctx context.Context, code string) (string, error)
	TopURLs(ctx context.Context) ([]models.UrlMapping, error)
	AccessCount(ctx context.Context, code string) (int64, error)
}

type Option func(*shortenerService)

// WithCodeGenerator подменяет генератор коротких кодов
func WithCodeGenerator(generate func() (string, error)) Option {
	return func(s *shortenerService) {
		s.generate = generate
	}
}

type shortenerService struct {
	repo     repository.MappingRepository
	cache    repository.StatsCache
	cacheTTL time.Duration
	logger   *zap.Logger
	generate func() (string, error)
}

// NewShortenerService создаёт сервис; cache может быть nil, cacheTTL == 0 отключает кэш топа
func NewShortenerService(
	repo repository.MappingRepository,
	cache repository.StatsCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
	opts ...Option,
) ShortenerService {
	s := &shortenerService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		generate: GenerateShortCode,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateShortURL сохраняет очищенный URL под новым случайным кодом
func (s *shortenerService) CreateShortURL(ctx context.Context, longURL string) (string, error) {
	sanitized := SanitizeURL(longURL)
	if sanitized == "" {
		return "", ErrInvalidURL
	}

	return withFallback(s.logger, "CreateShortURL", "", func() (string, error) {
		for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
			code, err := s.generate()
			if err != nil {
				return "", fmt.Errorf("failed to generate code: %w", err)
			}

			mapping := &models.UrlMapping{
				ShortCode:   code,
				LongURL:     sanitized,
				CreatedAt:   time.Now(),
				AccessCount: 0,
			}

			err = s.repo.Save(ctx, mapping)
			if err == nil {
				return code, nil
			}
			if !errors.Is(err, repository.ErrCodeExists) {
				return "", err
			}

			// Коллизия: генерируем новый код
			s.logger.Warn("Short code collision",
				zap.String("code", code),
				zap.Int("attempt", attempt),
			)
		}

		return "", fmt.Errorf("no free code after %d attempts: %w", maxGenerateAttempts, repository.ErrCodeExists)
	})
}

// GetOriginalURL возвращает исходный URL и увеличивает счётчик переходов.
// Счётчик сохраняется до возврата URL.
func (s *shortenerService) GetOriginalURL(ctx context.Context, code string) (string, error) {
	return withFallback(s.logger, "GetOriginalURL", "", func() (string, error) {
		mapping, err := s.repo.FindByShortCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrMappingNotFound) {
				return "", ErrNotFound
			}
			return "", err
		}

		mapping.AccessCount++
		if err := s.repo.Save(ctx, mapping); err != nil {
			return "", fmt.Errorf("failed to save access count: %w", err)
		}

		return mapping.LongURL, nil
	})
}

// TopURLs возвращает до TopLimit ссылок по убыванию числа переходов
func (s *shortenerService) TopURLs(ctx context.Context) ([]models.UrlMapping, error) {
	cacheEnabled := s.cache != nil && s.cacheTTL > 0

	// Проверка кэша
	if cacheEnabled {
		if top, err := s.cache.GetTop(ctx); err == nil {
			return top, nil
		}
	}

	top, err := withFallback(s.logger, "TopURLs", []models.UrlMapping(nil), func() ([]models.UrlMapping, error) {
		return s.repo.TopByAccessCount(ctx, TopLimit)
	})
	if err != nil {
		return nil, err
	}

	if cacheEnabled {
		if err := s.cache.SetTop(ctx, top, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache top mappings", zap.Error(err))
		}
	}

	return top, nil
}

// AccessCount возвращает текущее число переходов по коду, минуя кэш
func (s *shortenerService) AccessCount(ctx context.Context, code string) (int64, error) {
	return withFallback(s.logger, "AccessCount", int64(0), func() (int64, error) {
		mapping, err := s.repo.FindByShortCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrMappingNotFound) {
				return 0, ErrNotFound
			}
			return 0, err
		}
		return mapping.AccessCount, nil
	})
}

// GenerateShortCode генерирует случайный код длиной CodeLength из 62 символов
func GenerateShortCode() (string, error) {
	result := make([]byte, CodeLength)
	alphabet := big.NewInt(int64(len(charset)))
	for i := 0; i < CodeLength; i++ {
		num, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}

// SanitizeURL удаляет символы вне [A-Za-z0-9:/?&.=_%-]
func SanitizeURL(url string) string {
	return unsafeURLChars.ReplaceAllString(url, "")
}
