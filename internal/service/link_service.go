package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/SergeiKhy/shortly/internal/models"
	"github.com/SergeiKhy/shortly/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrInvalidURL = errors.New("невалидный URL")
	// ErrCodeSpaceExhausted лимит попыток генерации уникального кода исчерпан
	ErrCodeSpaceExhausted = errors.New("не удалось сгенерировать уникальный код")
)

// Константы аллокатора
const (
	defaultCacheTTL  = 24 * time.Hour
	codeLength       = 8
	charset          = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	maxAllocAttempts = 5 // Бюджет повторов при коллизиях кода
)

// LinkService интерфейс аллокатора коротких ссылок
type LinkService interface {
	CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.CreateLinkResult, error)
	CreateLinkBatch(ctx context.Context, items []models.BatchCreateItem, ownerID *uuid.UUID) []models.BatchCreateResult
	GetLink(ctx context.Context, code string) (*models.Link, error)
	ShortURL(code string) string
}

// linkService реализация аллокатора
type linkService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	baseURL   string
	logger    *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса.
// baseURL передаётся явно, а не читается из окружения
func NewLinkService(linkRepo repository.LinkRepository, cacheRepo repository.CacheRepository, baseURL string, logger *zap.Logger) LinkService {
	return &linkService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// CreateLink создаёт короткую ссылку либо возвращает уже существующую
// в том же owner scope (повторный вызов идемпотентен)
func (s *linkService) CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.CreateLinkResult, error) {
	if err := validateURL(input.OriginalURL); err != nil {
		return nil, err
	}

	// Дедупликация по (original_url, owner_id); nil OwnerID — общий
	// анонимный scope
	existing, err := s.linkRepo.GetByOriginalURL(ctx, input.OriginalURL, input.OwnerID)
	if err == nil {
		return &models.CreateLinkResult{Link: existing, Created: false}, nil
	}
	if !errors.Is(err, repository.ErrLinkNotFound) {
		return nil, fmt.Errorf("failed to check duplicate url: %w", err)
	}

	for attempt := 0; attempt < maxAllocAttempts; attempt++ {
		code, err := generateShortCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		// Предварительная проверка дешевле, чем откат вставки
		exists, err := s.linkRepo.CodeExists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to check code: %w", err)
		}
		if exists {
			s.logger.Debug("Коллизия короткого кода, повтор",
				zap.String("code", code),
				zap.Int("attempt", attempt+1),
			)
			continue
		}

		link := &models.Link{
			ShortCode:   code,
			OriginalURL: input.OriginalURL,
			OwnerID:     input.OwnerID,
			ExpiresAt:   input.ExpiresAt,
			CreatedAt:   time.Now(),
		}

		err = s.linkRepo.Create(ctx, link)
		switch {
		case err == nil:
			s.cacheLink(ctx, link)
			return &models.CreateLinkResult{Link: link, Created: true}, nil

		case errors.Is(err, repository.ErrCodeExists):
			// Гонка с конкурентным аллокатором: нарушение уникальности
			// кода эквивалентно коллизии на пре-чеке
			continue

		case errors.Is(err, repository.ErrDuplicateURL):
			// Конкурентный запрос успел создать ссылку на тот же URL
			existing, getErr := s.linkRepo.GetByOriginalURL(ctx, input.OriginalURL, input.OwnerID)
			if getErr != nil {
				return nil, fmt.Errorf("failed to fetch concurrent duplicate: %w", getErr)
			}
			return &models.CreateLinkResult{Link: existing, Created: false}, nil

		default:
			return nil, err
		}
	}

	s.logger.Error("Бюджет попыток аллокации кода исчерпан",
		zap.String("url", input.OriginalURL),
		zap.Int("attempts", maxAllocAttempts),
	)
	return nil, ErrCodeSpaceExhausted
}

// CreateLinkBatch применяет логику CreateLink к каждому элементу независимо.
// Ошибка одного элемента не прерывает остальные
func (s *linkService) CreateLinkBatch(ctx context.Context, items []models.BatchCreateItem, ownerID *uuid.UUID) []models.BatchCreateResult {
	results := make([]models.BatchCreateResult, 0, len(items))

	for _, item := range items {
		result, err := s.CreateLink(ctx, &models.CreateLinkInput{
			OriginalURL: item.OriginalURL,
			OwnerID:     ownerID,
			ExpiresAt:   item.ExpiresAt,
		})

		if err != nil {
			msg := "Failed to shorten URL"
			if errors.Is(err, ErrInvalidURL) {
				msg = "Invalid URL"
			}
			results = append(results, models.BatchCreateResult{
				OriginalURL: item.OriginalURL,
				Error:       msg,
			})
			continue
		}

		results = append(results, models.BatchCreateResult{
			OriginalURL: item.OriginalURL,
			Code:        result.Link.ShortCode,
			ShortURL:    s.ShortURL(result.Link.ShortCode),
		})
	}

	return results
}

// GetLink получает ссылку по короткому коду (сначала из кэша, затем из БД)
func (s *linkService) GetLink(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.cacheRepo.Get(ctx, code)
	if err == nil {
		return link, nil
	}

	link, err = s.linkRepo.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	s.cacheLink(ctx, link)

	return link, nil
}

// ShortURL собирает полный короткий URL для кода
func (s *linkService) ShortURL(code string) string {
	return s.baseURL + "/" + code
}

func (s *linkService) cacheLink(ctx context.Context, link *models.Link) {
	ttl := defaultCacheTTL
	if link.ExpiresAt != nil {
		if until := time.Until(*link.ExpiresAt); until < ttl {
			ttl = until
		}
	}

	if err := s.cacheRepo.Set(ctx, link.ShortCode, link, ttl); err != nil {
		s.logger.Warn("Не удалось закэшировать ссылку",
			zap.String("code", link.ShortCode),
			zap.Error(err),
		)
	}
}

// generateShortCode генерирует случайный короткий код длиной 8 символов
// из 62-символьного алфавита
func generateShortCode() (string, error) {
	result := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}

// validateURL принимает только абсолютные http(s) URL
func validateURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ErrInvalidURL
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
