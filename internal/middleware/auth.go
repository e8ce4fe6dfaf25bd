package middleware

import (
	"net/http"
	"strings"

	"github.com/SergeiKhy/shortly/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const userIDKey = "user_id"

// OptionalAuth привязывает идентичность пользователя, если передан валидный
// Bearer токен. Отсутствующий или невалидный токен игнорируется: запрос
// продолжается анонимно
func OptionalAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		userID, err := auth.ParseToken(token)
		if err == nil {
			c.Set(userIDKey, userID)
		}

		c.Next()
	}
}

// RequireAuth требует валидный Bearer токен
func RequireAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "Требуется токен. Передайте его через заголовок Authorization: Bearer",
			})
			c.Abort()
			return
		}

		userID, err := auth.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Невалидный токен",
			})
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// OwnerIDFromContext возвращает ID аутентифицированного пользователя;
// nil — анонимный запрос
func OwnerIDFromContext(c *gin.Context) *uuid.UUID {
	value, exists := c.Get(userIDKey)
	if !exists {
		return nil
	}
	userID, ok := value.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// IsAuthenticated проверяет, что запрос несёт валидную идентичность
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(userIDKey)
	return exists
}
