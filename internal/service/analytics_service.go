package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SergeiKhy/shortly/internal/models"
	"github.com/SergeiKhy/shortly/internal/repository"
	"go.uber.org/zap"
)

// Окна агрегации: последние 30 дней, 12 ISO-недель, 12 месяцев
const (
	dailyWindow   = 30 * 24 * time.Hour
	weeklyWindow  = 84 * 24 * time.Hour
	monthlyWindow = 365 * 24 * time.Hour
	topGroupLimit = 50
)

// AnalyticsService интерфейс агрегатора кликов
type AnalyticsService interface {
	Summarize(ctx context.Context, code string) (*models.LinkAnalytics, error)
}

// analyticsService строит сводку из лога событий. Операция только читает:
// свежесть сквозная, без отдельного слоя кэша
type analyticsService struct {
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
	logger    *zap.Logger
}

func NewAnalyticsService(linkRepo repository.LinkRepository, clickRepo repository.ClickRepository, logger *zap.Logger) AnalyticsService {
	return &analyticsService{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
		logger:    logger,
	}
}

// Summarize собирает временные и категориальные разрезы по коду
func (s *analyticsService) Summarize(ctx context.Context, code string) (*models.LinkAnalytics, error) {
	link, err := s.linkRepo.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	clicks, err := s.clickRepo.ListByLink(ctx, link.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load clicks: %w", err)
	}

	now := time.Now()

	return &models.LinkAnalytics{
		URL: models.LinkSummary{
			OriginalURL: link.OriginalURL,
			ShortCode:   link.ShortCode,
			CreatedAt:   link.CreatedAt,
			ClickCount:  link.ClickCount,
		},
		Daily:        bucketize(clicks, now, dailyWindow, dayKey),
		Weekly:       bucketize(clicks, now, weeklyWindow, weekKey),
		Monthly:      bucketize(clicks, now, monthlyWindow, monthKey),
		TopCountries: topGroups(clicks, func(c *models.Click) string { return c.Country }),
		TopReferrers: topGroups(clicks, func(c *models.Click) string { return c.Referrer }),
	}, nil
}

// bucketize считает клики по календарным интервалам внутри окна.
// Интервалы без кликов опускаются; порядок — по возрастанию ключа.
// Граница окна включающая: timestamp >= now - window
func bucketize(clicks []models.Click, now time.Time, window time.Duration, key func(time.Time) string) []models.BucketCount {
	cutoff := now.Add(-window)

	counts := make(map[string]int64)
	for i := range clicks {
		if clicks[i].ClickedAt.Before(cutoff) {
			continue
		}
		counts[key(clicks[i].ClickedAt)]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buckets := make([]models.BucketCount, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, models.BucketCount{Key: k, Count: counts[k]})
	}
	return buckets
}

// topGroups группирует все клики без временного окна, сортирует по
// убыванию количества и обрезает до 50. Ничьи разрешаются порядком
// первого появления группы
func topGroups(clicks []models.Click, key func(*models.Click) string) []models.GroupCount {
	counts := make(map[string]int64)
	order := make([]string, 0)
	for i := range clicks {
		k := key(&clicks[i])
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}

	groups := make([]models.GroupCount, 0, len(order))
	for _, k := range order {
		groups = append(groups, models.GroupCount{Name: k, Count: counts[k]})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})

	if len(groups) > topGroupLimit {
		groups = groups[:topGroupLimit]
	}
	return groups
}

// Ключи календарных интервалов; всё в UTC
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func weekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
