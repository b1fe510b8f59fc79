package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrMappingNotFound = errors.New("url mapping not found")
	ErrCodeExists      = errors.New("short code already exists")
)

const uniqueViolationCode = "23505"

type MappingRepository interface {
	FindByShortCode(ctx context.Context, code string) (*models.UrlMapping, error)
	// Save вставляет запись при ID == 0, иначе сохраняет счётчик переходов
	Save(ctx context.Context, mapping *models.UrlMapping) error
	TopByAccessCount(ctx context.Context, n int) ([]models.UrlMapping, error)
}

type mappingRepository struct {
	db *PostgresDB
}

func NewMappingRepository(db *PostgresDB) MappingRepository {
	return &mappingRepository{db: db}
}

func (r *mappingRepository) FindByShortCode(ctx context.Context, code string) (*models.UrlMapping, error) {
	query := `
		SELECT id, short_code, long_url, created_at, access_count
		FROM url_mappings
		WHERE short_code = $1
	`

	mapping := &models.UrlMapping{}
	err := r.db.Pool.QueryRow(ctx, query, code).Scan(
		&mapping.ID,
		&mapping.ShortCode,
		&mapping.LongURL,
		&mapping.CreatedAt,
		&mapping.AccessCount,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMappingNotFound
		}
		return nil, fmt.Errorf("failed to get url mapping: %w", err)
	}

	return mapping, nil
}

func (r *mappingRepository) Save(ctx context.Context, mapping *models.UrlMapping) error {
	if mapping.ID == 0 {
		return r.insert(ctx, mapping)
	}
	return r.update(ctx, mapping)
}

func (r *mappingRepository) insert(ctx context.Context, mapping *models.UrlMapping) error {
	query := `
		INSERT INTO url_mappings (short_code, long_url, created_at, access_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		mapping.ShortCode,
		mapping.LongURL,
		mapping.CreatedAt,
		mapping.AccessCount,
	).Scan(&mapping.ID, &mapping.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to create url mapping: %w", err)
	}

	return nil
}

// update меняет только access_count; остальные поля неизменяемы.
// GREATEST не даёт счётчику уменьшиться при гонке конкурентных сохранений.
func (r *mappingRepository) update(ctx context.Context, mapping *models.UrlMapping) error {
	query := `
		UPDATE url_mappings
		SET access_count = GREATEST(access_count, $2)
		WHERE id = $1
		RETURNING access_count
	`

	err := r.db.Pool.QueryRow(ctx, query, mapping.ID, mapping.AccessCount).Scan(&mapping.AccessCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMappingNotFound
		}
		return fmt.Errorf("failed to update url mapping: %w", err)
	}

	return nil
}

func (r *mappingRepository) TopByAccessCount(ctx context.Context, n int) ([]models.UrlMapping, error) {
	query := `
		SELECT id, short_code, long_url, created_at, access_count
		FROM url_mappings
		ORDER BY access_count DESC, id ASC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to get top url mappings: %w", err)
	}
	defer rows.Close()

	mappings := make([]models.UrlMapping, 0, n)
	for rows.Next() {
		var m models.UrlMapping
		if err := rows.Scan(&m.ID, &m.ShortCode, &m.LongURL, &m.CreatedAt, &m.AccessCount); err != nil {
			return nil, fmt.Errorf("failed to scan url mapping: %w", err)
		}
		mappings = append(mappings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating url mappings: %w", err)
	}

	return mappings, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
