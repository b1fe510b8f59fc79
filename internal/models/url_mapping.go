package models

import (
	"time"
)

// UrlMapping связь короткого кода с исходным URL
type UrlMapping struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"shortUrl"`
	LongURL     string    `json:"longUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	AccessCount int64     `json:"accessCount"`
}

type ShortenInput struct {
	LongURL string `json:"longUrl" binding:"required,url"`
}

// MappingStats элемент топа по количеству переходов
type MappingStats struct {
	ShortCode   string `json:"shortUrl"`
	LongURL     string `json:"longUrl"`
	AccessCount int64  `json:"accessCount"`
}

func (m *UrlMapping) Stats() MappingStats {
	return MappingStats{
		ShortCode:   m.ShortCode,
		LongURL:     m.LongURL,
		AccessCount: m.AccessCount,
	}
}
