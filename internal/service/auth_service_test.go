package service_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/shortly/internal/models"
	"github.com/SergeiKhy/shortly/internal/service"
	"github.com/SergeiKhy/shortly/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthService() service.AuthService {
	return service.NewAuthService(mocks.NewMockUserRepository(), "test-secret", time.Hour, zap.NewNop())
}

func registerInput() *models.RegisterInput {
	return &models.RegisterInput{
		Email:    "user@example.com",
		Phone:    "9991234567",
		Name:     "Test User",
		Password: "password123",
	}
}

// TestAuthService_Register_Success проверяет успешную регистрацию
func TestAuthService_Register_Success(t *testing.T) {
	auth := setupAuthService()

	ctx := context.Background()
	user, err := auth.Register(ctx, registerInput())

	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
	assert.NotEmpty(t, user.ID)
	// Пароль хранится только в виде bcrypt-хэша
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.NotEmpty(t, user.PasswordHash)
}

// TestAuthService_Register_DuplicateEmail проверяет конфликт по email
func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	auth := setupAuthService()

	ctx := context.Background()
	_, err := auth.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = auth.Register(ctx, registerInput())
	assert.ErrorIs(t, err, service.ErrEmailTaken)
}

// TestAuthService_Register_Validation проверяет отклонение невалидных данных
func TestAuthService_Register_Validation(t *testing.T) {
	auth := setupAuthService()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.RegisterInput)
	}{
		{"невалидный email", func(in *models.RegisterInput) { in.Email = "not-an-email" }},
		{"короткий телефон", func(in *models.RegisterInput) { in.Phone = "12345" }},
		{"телефон с буквами", func(in *models.RegisterInput) { in.Phone = "99912345ab" }},
		{"пустое имя", func(in *models.RegisterInput) { in.Name = "" }},
		{"пустой пароль", func(in *models.RegisterInput) { in.Password = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := registerInput()
			tt.mutate(input)

			user, err := auth.Register(ctx, input)
			assert.ErrorIs(t, err, service.ErrInvalidRegistration)
			assert.Nil(t, user)
		})
	}
}

// TestAuthService_Login_Success проверяет выдачу токена с корректным subject
func TestAuthService_Login_Success(t *testing.T) {
	auth := setupAuthService()

	ctx := context.Background()
	user, err := auth.Register(ctx, registerInput())
	require.NoError(t, err)

	token, err := auth.Login(ctx, "user@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

// TestAuthService_Login_InvalidCredentials проверяет, что неизвестный email
// и неверный пароль дают одну и ту же ошибку
func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	auth := setupAuthService()

	ctx := context.Background()
	_, err := auth.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = auth.Login(ctx, "user@example.com", "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = auth.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

// TestAuthService_ParseToken_Invalid проверяет отклонение мусорных токенов
// и токенов с чужой подписью
func TestAuthService_ParseToken_Invalid(t *testing.T) {
	auth := setupAuthService()

	_, err := auth.ParseToken("garbage")
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	// Токен, подписанный другим секретом
	other := service.NewAuthService(mocks.NewMockUserRepository(), "other-secret", time.Hour, zap.NewNop())
	ctx := context.Background()
	_, err = other.Register(ctx, registerInput())
	require.NoError(t, err)
	token, err := other.Login(ctx, "user@example.com", "password123")
	require.NoError(t, err)

	_, err = auth.ParseToken(token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}
