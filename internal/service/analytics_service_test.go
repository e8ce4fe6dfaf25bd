package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/shortly/internal/models"
	"github.com/SergeiKhy/shortly/internal/repository"
	"github.com/SergeiKhy/shortly/internal/service"
	"github.com/SergeiKhy/shortly/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analyticsEnv struct {
	analytics service.AnalyticsService
	linkRepo  *mocks.MockLinkRepository
	clickRepo *mocks.MockClickRepository
}

func setupAnalytics() *analyticsEnv {
	linkRepo := mocks.NewMockLinkRepository()
	clickRepo := mocks.NewMockClickRepository()
	return &analyticsEnv{
		analytics: service.NewAnalyticsService(linkRepo, clickRepo, zap.NewNop()),
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
	}
}

func (env *analyticsEnv) seedLink(t *testing.T, code string) *models.Link {
	t.Helper()

	link := &models.Link{
		ShortCode:   code,
		OriginalURL: "https://example.com/" + code,
		CreatedAt:   time.Now().Add(-40 * 24 * time.Hour),
	}
	require.NoError(t, env.linkRepo.Create(context.Background(), link))
	return link
}

func (env *analyticsEnv) seedClick(t *testing.T, linkID int64, at time.Time, country, referrer string) {
	t.Helper()

	require.NoError(t, env.clickRepo.RecordClick(context.Background(), &models.Click{
		LinkID:    linkID,
		ClickedAt: at,
		Country:   country,
		Referrer:  referrer,
	}))
}

// TestAnalyticsService_Summarize_NotFound проверяет неизвестный код
func TestAnalyticsService_Summarize_NotFound(t *testing.T) {
	env := setupAnalytics()

	ctx := context.Background()
	summary, err := env.analytics.Summarize(ctx, "nonexistent")

	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	assert.Nil(t, summary)
}

// TestAnalyticsService_Summarize_DailyWindow проверяет границу 30-дневного
// окна: клики в T, T-1, T-29 входят, T-31 - нет
func TestAnalyticsService_Summarize_DailyWindow(t *testing.T) {
	env := setupAnalytics()
	link := env.seedLink(t, "window")

	now := time.Now()
	day := 24 * time.Hour
	env.seedClick(t, link.ID, now, "US", "Direct")
	env.seedClick(t, link.ID, now.Add(-1*day), "US", "Direct")
	env.seedClick(t, link.ID, now.Add(-29*day), "US", "Direct")
	env.seedClick(t, link.ID, now.Add(-31*day), "US", "Direct")

	ctx := context.Background()
	summary, err := env.analytics.Summarize(ctx, "window")
	require.NoError(t, err)

	var total int64
	keys := make([]string, 0, len(summary.Daily))
	for _, bucket := range summary.Daily {
		total += bucket.Count
		keys = append(keys, bucket.Key)
	}

	// Три клика внутри окна; клик T-31 не попадает в daily
	assert.Equal(t, int64(3), total)
	assert.NotContains(t, keys, now.Add(-31*day).UTC().Format("2006-01-02"))
	assert.Contains(t, keys, now.UTC().Format("2006-01-02"))
	assert.Contains(t, keys, now.Add(-29*day).UTC().Format("2006-01-02"))

	// Ключи отсортированы по возрастанию
	assert.IsIncreasing(t, keys)

	// Недельное (84 дня) и месячное (365 дней) окна включают все 4 клика
	var weeklyTotal, monthlyTotal int64
	for _, bucket := range summary.Weekly {
		weeklyTotal += bucket.Count
	}
	for _, bucket := range summary.Monthly {
		monthlyTotal += bucket.Count
	}
	assert.Equal(t, int64(4), weeklyTotal)
	assert.Equal(t, int64(4), monthlyTotal)
}

// TestAnalyticsService_Summarize_BucketKeys проверяет форматы ключей интервалов
func TestAnalyticsService_Summarize_BucketKeys(t *testing.T) {
	env := setupAnalytics()
	link := env.seedLink(t, "keys")

	at := time.Now().UTC().Add(-7 * 24 * time.Hour)
	env.seedClick(t, link.ID, at, "US", "Direct")

	ctx := context.Background()
	summary, err := env.analytics.Summarize(ctx, "keys")
	require.NoError(t, err)

	require.Len(t, summary.Monthly, 1)
	assert.Equal(t, at.Format("2006-01"), summary.Monthly[0].Key)

	year, week := at.ISOWeek()
	require.Len(t, summary.Weekly, 1)
	assert.Equal(t, fmt.Sprintf("%04d-W%02d", year, week), summary.Weekly[0].Key)
}

// TestAnalyticsService_Summarize_SparseBuckets проверяет, что пустые
// интервалы опускаются, а клики одного дня схлопываются в один интервал
func TestAnalyticsService_Summarize_SparseBuckets(t *testing.T) {
	env := setupAnalytics()
	link := env.seedLink(t, "sparse")

	now := time.Now()
	env.seedClick(t, link.ID, now, "US", "Direct")
	env.seedClick(t, link.ID, now.Add(-time.Minute), "US", "Direct")
	env.seedClick(t, link.ID, now.Add(-5*24*time.Hour), "US", "Direct")

	ctx := context.Background()
	summary, err := env.analytics.Summarize(ctx, "sparse")
	require.NoError(t, err)

	// Два непустых дня, никаких нулевых интервалов между ними
	require.Len(t, summary.Daily, 2)
	assert.Equal(t, int64(1), summary.Daily[0].Count)
	assert.Equal(t, int64(2), summary.Daily[1].Count)
}

// TestAnalyticsService_Summarize_TopGroups проверяет сортировку по убыванию
// со стабильным порядком при ничьих
func TestAnalyticsService_Summarize_TopGroups(t *testing.T) {
	env := setupAnalytics()
	link := env.seedLink(t, "groups")

	now := time.Now()
	// US: 3 клика, DE: 2, FR: 2 (DE появляется раньше FR)
	countries := []string{"DE", "US", "FR", "US", "DE", "FR", "US"}
	for i, country := range countries {
		env.seedClick(t, link.ID, now.Add(time.Duration(i)*time.Second-time.Hour), country, "Direct")
	}

	ctx := context.Background()
	summary, err := env.analytics.Summarize(ctx, "groups")
	require.NoError(t, err)

	require.Len(t, summary.TopCountries, 3)
	assert.Equal(t, "US", summary.TopCountries[0].Name)
	assert.Equal(t, int64(3), summary.TopCountries[0].Count)
	// Ничья DE/FR разрешается порядком первого появления
	assert.Equal(t, "DE", summary.TopCountries[1].Name)
	assert.Equal(t, "FR", summary.TopCountries[2].Name)
}

// TestAnalyticsService_Summarize_TopGroupsTruncated проверяет обрезку до 50 групп
func TestAnalyticsService_Summarize_TopGroupsTruncated(t *testing.T) {
	env := setupAnalytics()
	link := env.seedLink(t, "many")

	now := time.Now()
	for i := 0; i < 55; i++ {
		env.seedClick(t, link.ID, now.Add(-time.Hour), "US", fmt.Sprintf("https://ref%02d.example.com", i))
	}

	ctx := context.Background()
	summary, err := env.analytics.Summarize(ctx, "many")
	require.NoError(t, err)

	assert.Len(t, summary.TopReferrers, 50)
}

// TestAnalyticsService_Summarize_AllTimeGroups проверяет, что категориальные
// разрезы не ограничены временным окном
func TestAnalyticsService_Summarize_AllTimeGroups(t *testing.T) {
	env := setupAnalytics()
	link := env.seedLink(t, "alltime")

	now := time.Now()
	env.seedClick(t, link.ID, now.Add(-400*24*time.Hour), "BR", "https://old.example.com")
	env.seedClick(t, link.ID, now, "US", "Direct")

	ctx := context.Background()
	summary, err := env.analytics.Summarize(ctx, "alltime")
	require.NoError(t, err)

	// Старый клик выпал из всех временных окон, но виден в разрезах
	assert.Empty(t, summaryKeys(summary.Monthly, now.Add(-400*24*time.Hour)))
	assert.Len(t, summary.TopCountries, 2)
	assert.Len(t, summary.TopReferrers, 2)
}

// TestAnalyticsService_Summarize_LinkSummary проверяет сводку по ссылке в ответе
func TestAnalyticsService_Summarize_LinkSummary(t *testing.T) {
	env := setupAnalytics()
	link := env.seedLink(t, "meta")

	ctx := context.Background()
	require.NoError(t, env.linkRepo.IncrementClickCount(ctx, link.ID))

	summary, err := env.analytics.Summarize(ctx, "meta")
	require.NoError(t, err)

	assert.Equal(t, link.OriginalURL, summary.URL.OriginalURL)
	assert.Equal(t, "meta", summary.URL.ShortCode)
	assert.Equal(t, int64(1), summary.URL.ClickCount)
	assert.True(t, summary.URL.CreatedAt.Equal(link.CreatedAt))
}

// summaryKeys возвращает ключи интервалов, содержащих данный момент
func summaryKeys(buckets []models.BucketCount, at time.Time) []string {
	key := at.UTC().Format("2006-01")
	var found []string
	for _, bucket := range buckets {
		if bucket.Key == key {
			found = append(found, bucket.Key)
		}
	}
	return found
}
