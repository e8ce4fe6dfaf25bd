package models

import (
	"time"
)

// BucketCount количество кликов в одном календарном интервале.
// Key: день "2006-01-02", ISO-неделя "2006-W02" или месяц "2006-01"
type BucketCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// GroupCount количество кликов в одной категории (страна или referrer)
type GroupCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// LinkSummary сводка по ссылке в составе ответа аналитики
type LinkSummary struct {
	OriginalURL string    `json:"original_url"`
	ShortCode   string    `json:"short_code"`
	CreatedAt   time.Time `json:"created_at"`
	ClickCount  int64     `json:"click_count"`
}

// LinkAnalytics полный ответ аналитики по короткому коду
type LinkAnalytics struct {
	URL          LinkSummary   `json:"url"`
	Daily        []BucketCount `json:"daily"`
	Weekly       []BucketCount `json:"weekly"`
	Monthly      []BucketCount `json:"monthly"`
	TopCountries []GroupCount  `json:"countries"`
	TopReferrers []GroupCount  `json:"referrers"`
}
