package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/repository"
)

// MockMappingRepository implements repository.MappingRepository for testing
type MockMappingRepository struct {
	mu       sync.RWMutex
	mappings map[string]*models.UrlMapping
	nextID   int64
	err      error
}

func NewMockMappingRepository() *MockMappingRepository {
	return &MockMappingRepository{
		mappings: make(map[string]*models.UrlMapping),
		nextID:   1,
	}
}

// SetError makes every subsequent call fail with err; nil restores normal behaviour
func (m *MockMappingRepository) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockMappingRepository) FindByShortCode(ctx context.Context, code string) (*models.UrlMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	mapping, exists := m.mappings[code]
	if !exists {
		return nil, repository.ErrMappingNotFound
	}
	copied := *mapping
	return &copied, nil
}

func (m *MockMappingRepository) Save(ctx context.Context, mapping *models.UrlMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	if mapping.ID == 0 {
		if _, exists := m.mappings[mapping.ShortCode]; exists {
			return repository.ErrCodeExists
		}
		mapping.ID = m.nextID
		m.nextID++
		stored := *mapping
		m.mappings[mapping.ShortCode] = &stored
		return nil
	}

	for _, stored := range m.mappings {
		if stored.ID == mapping.ID {
			if mapping.AccessCount > stored.AccessCount {
				stored.AccessCount = mapping.AccessCount
			}
			mapping.AccessCount = stored.AccessCount
			return nil
		}
	}
	return repository.ErrMappingNotFound
}

func (m *MockMappingRepository) TopByAccessCount(ctx context.Context, n int) ([]models.UrlMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	all := make([]models.UrlMapping, 0, len(m.mappings))
	for _, mapping := range m.mappings {
		all = append(all, *mapping)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].AccessCount != all[j].AccessCount {
			return all[i].AccessCount > all[j].AccessCount
		}
		return all[i].ID < all[j].ID
	})

	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// Put stores a mapping as is, assigning an ID when missing
func (m *MockMappingRepository) Put(mapping models.UrlMapping) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mapping.ID == 0 {
		mapping.ID = m.nextID
		m.nextID++
	}
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = time.Now()
	}
	m.mappings[mapping.ShortCode] = &mapping
}

// Snapshot returns a copy of every stored mapping keyed by short code
func (m *MockMappingRepository) Snapshot() map[string]models.UrlMapping {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]models.UrlMapping, len(m.mappings))
	for code, mapping := range m.mappings {
		snapshot[code] = *mapping
	}
	return snapshot
}

func (m *MockMappingRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings = make(map[string]*models.UrlMapping)
	m.nextID = 1
	m.err = nil
}

var errCacheMiss = errors.New("cache miss")

// MockStatsCache implements repository.StatsCache for testing
type MockStatsCache struct {
	mu   sync.RWMutex
	top  []models.UrlMapping
	ttl  time.Duration
	sets int
	err  error
}

func NewMockStatsCache() *MockStatsCache {
	return &MockStatsCache{}
}

// SetError makes every subsequent call fail with err
func (m *MockStatsCache) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockStatsCache) GetTop(ctx context.Context) ([]models.UrlMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}
	if m.top == nil {
		return nil, errCacheMiss
	}
	return append([]models.UrlMapping(nil), m.top...), nil
}

func (m *MockStatsCache) SetTop(ctx context.Context, mappings []models.UrlMapping, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.top = append([]models.UrlMapping{}, mappings...)
	m.ttl = ttl
	m.sets++
	return nil
}

// Sets reports how many times SetTop succeeded and the last TTL used
func (m *MockStatsCache) Sets() (int, time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets, m.ttl
}

func (m *MockStatsCache) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.top = nil
	m.ttl = 0
	m.sets = 0
	m.err = nil
}
