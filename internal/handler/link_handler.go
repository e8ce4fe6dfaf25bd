package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/SergeiKhy/shortly/internal/middleware"
	"github.com/SergeiKhy/shortly/internal/models"
	"github.com/SergeiKhy/shortly/internal/repository"
	"github.com/SergeiKhy/shortly/internal/service"
	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrImageSize = 512

type LinkHandler struct {
	links     service.LinkService
	redirects service.RedirectService
	analytics service.AnalyticsService
	logger    *zap.Logger
}

func NewLinkHandler(links service.LinkService, redirects service.RedirectService, analytics service.AnalyticsService, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		links:     links,
		redirects: redirects,
		analytics: analytics,
		logger:    logger,
	}
}

type CreateLinkRequest struct {
	OriginalURL string     `json:"original_url" binding:"required"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type CreateLinkResponse struct {
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	OriginalURL string     `json:"original_url"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type BulkCreateRequest struct {
	URLs []models.BatchCreateItem `json:"urls" binding:"required"`
}

type BulkCreateResponse struct {
	Results []models.BatchCreateResult `json:"results"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateLink godoc
// @Summary Create a short link
// @Description Create a new shortened URL; repeated calls for the same URL return the existing link
// @Tags links
// @Accept json
// @Produce json
// @Param request body CreateLinkRequest true "Link creation request"
// @Success 201 {object} CreateLinkResponse
// @Success 200 {object} CreateLinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/links [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	result, err := h.links.CreateLink(c.Request.Context(), &models.CreateLinkInput{
		OriginalURL: req.OriginalURL,
		OwnerID:     middleware.OwnerIDFromContext(c),
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		h.respondCreateError(c, err)
		return
	}

	// 201 на свежую аллокацию, 200 на повтор в том же owner scope
	status := http.StatusCreated
	if !result.Created {
		status = http.StatusOK
	}

	c.JSON(status, CreateLinkResponse{
		ShortCode:   result.Link.ShortCode,
		ShortURL:    h.links.ShortURL(result.Link.ShortCode),
		OriginalURL: result.Link.OriginalURL,
		ExpiresAt:   result.Link.ExpiresAt,
		CreatedAt:   result.Link.CreatedAt,
	})
}

// CreateLinkBatch godoc
// @Summary Bulk create short links
// @Description Shorten a batch of URLs; invalid items are reported per-item and do not abort the rest
// @Tags links
// @Accept json
// @Produce json
// @Param request body BulkCreateRequest true "Bulk creation request"
// @Success 200 {object} BulkCreateResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/links/bulk [post]
func (h *LinkHandler) CreateLinkBatch(c *gin.Context) {
	var req BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.URLs) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "urls array required",
		})
		return
	}

	results := h.links.CreateLinkBatch(c.Request.Context(), req.URLs, middleware.OwnerIDFromContext(c))

	c.JSON(http.StatusOK, BulkCreateResponse{Results: results})
}

// Redirect godoc
// @Summary Redirect to original URL
// @Description Redirect to the original URL by short code and record the click
// @Tags links
// @Produce json
// @Param code path string true "Short code"
// @Success 302 {object} nil
// @Failure 404 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /{code} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	meta := models.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	}

	target, err := h.redirects.Resolve(c.Request.Context(), code, meta)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLinkNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Short code not found",
			})
		case errors.Is(err, service.ErrLinkExpired):
			c.JSON(http.StatusGone, ErrorResponse{
				Error:   "expired",
				Message: "Short URL expired",
			})
		default:
			h.logger.Error("Failed to resolve link", zap.String("code", code), zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to resolve link",
			})
		}
		return
	}

	c.Redirect(http.StatusFound, target)
}

// GetAnalytics godoc
// @Summary Get click analytics
// @Description Daily/weekly/monthly click buckets plus top countries and referrers
// @Tags links
// @Produce json
// @Param code path string true "Short code"
// @Success 200 {object} models.LinkAnalytics
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{code}/analytics [get]
func (h *LinkHandler) GetAnalytics(c *gin.Context) {
	code := c.Param("code")

	summary, err := h.analytics.Summarize(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Short code not found",
			})
			return
		}
		h.logger.Error("Failed to build analytics", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to build analytics",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetQR godoc
// @Summary QR code for a short link
// @Description PNG image encoding the short URL
// @Tags links
// @Produce png
// @Param code path string true "Short code"
// @Success 200 {string} binary
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{code}/qr [get]
func (h *LinkHandler) GetQR(c *gin.Context) {
	code := c.Param("code")

	link, err := h.links.GetLink(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Short code not found",
			})
			return
		}
		h.logger.Error("Failed to get link for QR", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to generate QR code",
		})
		return
	}

	png, err := qrcode.Encode(h.links.ShortURL(link.ShortCode), qrcode.Medium, qrImageSize)
	if err != nil {
		h.logger.Error("Failed to encode QR", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to generate QR code",
		})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *LinkHandler) respondCreateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_url",
			Message: "Invalid URL. Use http(s)://",
		})
	case errors.Is(err, service.ErrCodeSpaceExhausted):
		h.logger.Error("Failed to allocate short code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "allocation_failed",
			Message: "Failed to generate unique code",
		})
	default:
		h.logger.Error("Failed to create link", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create link",
		})
	}
}
