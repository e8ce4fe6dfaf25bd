package handler

import (
	"net/http"

	"github.com/SergeiKhy/shortly/internal/middleware"
	"github.com/SergeiKhy/shortly/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(
	linkService service.LinkService,
	redirectService service.RedirectService,
	analyticsService service.AnalyticsService,
	authService service.AuthService,
	rateLimiter *middleware.RateLimiter,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware для логгирования
	router.Use(func(c *gin.Context) {
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	linkHandler := NewLinkHandler(linkService, redirectService, analyticsService, logger)
	authHandler := NewAuthHandler(authService, logger)

	// API v.1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", HealthCheck)

		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/login", authHandler.Login)

		// Создание доступно анонимам, но только через rate limiter;
		// аутентифицированные пользователи проходят без лимита
		create := v1.Group("/links")
		create.Use(middleware.OptionalAuth(authService))
		create.Use(rateLimiter.MiddlewareAnonymousOnly())
		{
			create.POST("", linkHandler.CreateLink)
			create.POST("/bulk", linkHandler.CreateLinkBatch)
		}

		v1.GET("/links/:code/analytics", linkHandler.GetAnalytics)
		v1.GET("/links/:code/qr", linkHandler.GetQR)
	}

	// Редирект (корневой путь)
	router.GET("/:code", linkHandler.Redirect)

	return router
}

// HealthCheck godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/v1/health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
