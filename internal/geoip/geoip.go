package geoip

import (
	"fmt"
	"net"

	"github.com/SergeiKhy/shortly/internal/models"
	"github.com/oschwald/geoip2-golang"
)

// Resolver определяет страну по IP адресу. Лучшее из возможного:
// неизвестный или невалидный IP даёт models.CountryUnknown, не ошибку
type Resolver interface {
	Country(ip string) string
	Close() error
}

// maxmindResolver резолвер на базе GeoLite2-Country.mmdb
type maxmindResolver struct {
	reader *geoip2.Reader
}

func NewMaxMindResolver(dbPath string) (Resolver, error) {
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database: %w", err)
	}
	return &maxmindResolver{reader: reader}, nil
}

func (r *maxmindResolver) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return models.CountryUnknown
	}

	record, err := r.reader.Country(parsed)
	if err != nil || record.Country.IsoCode == "" {
		return models.CountryUnknown
	}

	return record.Country.IsoCode
}

func (r *maxmindResolver) Close() error {
	return r.reader.Close()
}

// noopResolver используется, когда база GeoIP не сконфигурирована
type noopResolver struct{}

func NewNoopResolver() Resolver {
	return noopResolver{}
}

func (noopResolver) Country(string) string {
	return models.CountryUnknown
}

func (noopResolver) Close() error {
	return nil
}
