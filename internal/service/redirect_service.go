package service

import (
	"context"
	"errors"
	"time"

	"github.com/SergeiKhy/shortly/internal/geoip"
	"github.com/SergeiKhy/shortly/internal/models"
	"go.uber.org/zap"
)

// ErrLinkExpired срок жизни ссылки истёк; статус отличается от "не найдено"
var ErrLinkExpired = errors.New("ссылка истекла")

// RedirectService интерфейс диспетчера редиректов
type RedirectService interface {
	Resolve(ctx context.Context, code string, meta models.RequestMeta) (string, error)
}

// redirectService разрешает короткий код в целевой URL и фиксирует переход.
// Сам редирект выполняет HTTP-слой
type redirectService struct {
	links  LinkService
	clicks ClickProcessor
	geo    geoip.Resolver
	logger *zap.Logger
	now    func() time.Time
}

func NewRedirectService(links LinkService, clicks ClickProcessor, geo geoip.Resolver, logger *zap.Logger) RedirectService {
	return &redirectService{
		links:  links,
		clicks: clicks,
		geo:    geo,
		logger: logger,
		now:    time.Now,
	}
}

// Resolve возвращает оригинальный URL для кода. Пути NotFound и Expired
// не имеют побочных эффектов; успешный — ровно одно событие клика
func (s *redirectService) Resolve(ctx context.Context, code string, meta models.RequestMeta) (string, error) {
	link, err := s.links.GetLink(ctx, code)
	if err != nil {
		return "", err
	}

	if link.IsExpired(s.now()) {
		return "", ErrLinkExpired
	}

	// Геолокация и referrer — best effort: при любом сбое деградируем
	// к сентинельным значениям, редирект не прерываем
	country := s.geo.Country(meta.IPAddress)
	referrer := meta.Referrer
	if referrer == "" {
		referrer = models.ReferrerDirect
	}

	event := &models.ClickEvent{
		LinkID:    link.ID,
		ShortCode: link.ShortCode,
		Timestamp: s.now(),
		Country:   country,
		Referrer:  referrer,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}
	if err := s.clicks.RecordClick(ctx, event); err != nil {
		s.logger.Debug("Событие клика не принято (неблокирующая запись)",
			zap.String("code", code),
			zap.Error(err),
		)
	}

	return link.OriginalURL, nil
}
