package models

import (
	"time"

	"github.com/google/uuid"
)

type Link struct {
	ID          int64      `json:"id"`
	ShortCode   string     `json:"short_code"`
	OriginalURL string     `json:"original_url"`
	OwnerID     *uuid.UUID `json:"owner_id,omitempty"`
	ClickCount  int64      `json:"click_count"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsExpired проверяет, истёк ли срок жизни ссылки на момент now
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

type CreateLinkInput struct {
	OriginalURL string
	OwnerID     *uuid.UUID
	ExpiresAt   *time.Time
}

// CreateLinkResult результат аллокации. Created=false означает,
// что ссылка уже существовала в данном owner scope
type CreateLinkResult struct {
	Link    *Link
	Created bool
}

type BatchCreateItem struct {
	OriginalURL string     `json:"original_url"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// BatchCreateResult результат одного элемента батча, позиционно
// выровнен со входным списком
type BatchCreateResult struct {
	OriginalURL string `json:"original_url"`
	Code        string `json:"code,omitempty"`
	ShortURL    string `json:"short_url,omitempty"`
	Error       string `json:"error,omitempty"`
}
