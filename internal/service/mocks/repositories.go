package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SergeiKhy/shortly/internal/models"
	"github.com/SergeiKhy/shortly/internal/repository"
	"github.com/google/uuid"
)

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu     sync.RWMutex
	links  map[string]*models.Link // short_code -> link
	nextID int64

	// ForceCodeCollision заставляет CodeExists всегда отвечать true,
	// чтобы проверять исчерпание бюджета повторов
	ForceCodeCollision bool
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links:  make(map[string]*models.Link),
		nextID: 1,
	}
}

func scopeKey(originalURL string, ownerID *uuid.UUID) string {
	if ownerID == nil {
		return originalURL + "|anonymous"
	}
	return originalURL + "|" + ownerID.String()
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[link.ShortCode]; exists {
		return repository.ErrCodeExists
	}
	key := scopeKey(link.OriginalURL, link.OwnerID)
	for _, existing := range m.links {
		if scopeKey(existing.OriginalURL, existing.OwnerID) == key {
			return repository.ErrDuplicateURL
		}
	}

	link.ID = m.nextID
	m.nextID++
	m.links[link.ShortCode] = link
	return nil
}

func (m *MockLinkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *MockLinkRepository) GetByOriginalURL(ctx context.Context, originalURL string, ownerID *uuid.UUID) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := scopeKey(originalURL, ownerID)
	for _, link := range m.links {
		if scopeKey(link.OriginalURL, link.OwnerID) == key {
			return link, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (m *MockLinkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ForceCodeCollision {
		return true, nil
	}
	_, exists := m.links[code]
	return exists, nil
}

func (m *MockLinkRepository) IncrementClickCount(ctx context.Context, linkID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, link := range m.links {
		if link.ID == linkID {
			link.ClickCount++
			return nil
		}
	}
	return repository.ErrLinkNotFound
}

func (m *MockLinkRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[string]*models.Link)
	m.nextID = 1
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.Link
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.Link),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.cache[key]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, link *models.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl <= 0 {
		return nil
	}
	m.cache[key] = link
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

func (m *MockCacheRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*models.Link)
}

// MockClickRepository implements repository.ClickRepository for testing
type MockClickRepository struct {
	mu     sync.RWMutex
	clicks map[int64][]models.Click // link_id -> clicks
	nextID int64
}

func NewMockClickRepository() *MockClickRepository {
	return &MockClickRepository{
		clicks: make(map[int64][]models.Click),
		nextID: 1,
	}
}

func (m *MockClickRepository) RecordClick(ctx context.Context, click *models.Click) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	click.ID = m.nextID
	m.nextID++
	m.clicks[click.LinkID] = append(m.clicks[click.LinkID], *click)
	return nil
}

func (m *MockClickRepository) ListByLink(ctx context.Context, linkID int64) ([]models.Click, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clicks := make([]models.Click, len(m.clicks[linkID]))
	copy(clicks, m.clicks[linkID])
	sort.SliceStable(clicks, func(i, j int) bool {
		if clicks[i].ClickedAt.Equal(clicks[j].ClickedAt) {
			return clicks[i].ID < clicks[j].ID
		}
		return clicks[i].ClickedAt.Before(clicks[j].ClickedAt)
	})
	return clicks, nil
}

func (m *MockClickRepository) CountByLink(linkID int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clicks[linkID])
}

func (m *MockClickRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks = make(map[int64][]models.Click)
	m.nextID = 1
}

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User // email -> user
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*models.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.Email]; exists {
		return repository.ErrEmailExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *MockUserRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[string]*models.User)
}
