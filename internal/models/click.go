package models

import (
	"time"
)

// Значения по умолчанию для полей клика, когда источник не определён
const (
	CountryUnknown = "Unknown"
	ReferrerDirect = "Direct"
)

// Click неизменяемая запись об одном переходе по короткой ссылке
type Click struct {
	ID        int64     `json:"id"`
	LinkID    int64     `json:"link_id"`
	ClickedAt time.Time `json:"clicked_at"`
	Country   string    `json:"country"`
	Referrer  string    `json:"referrer"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
}

// ClickEvent событие перехода для асинхронной записи
type ClickEvent struct {
	LinkID    int64
	ShortCode string
	Timestamp time.Time
	Country   string
	Referrer  string
	UserAgent string
	IPAddress string
}

// RequestMeta метаданные входящего запроса редиректа
type RequestMeta struct {
	IPAddress string
	UserAgent string
	Referrer  string
}
