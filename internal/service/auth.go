// auth.go — сервис аутентификации администратора.
// Проверка email/пароля по bcrypt-хешу и выдача HS256 JWT.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/goresultboard/internal/domain/model"
	"github.com/bigkaa/goresultboard/internal/repository"
)

// TokenIssuer — значение iss в выдаваемых токенах.
const TokenIssuer = "results-module"

// AuthService — сервис аутентификации администратора.
type AuthService struct {
	users     repository.AdminUserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users repository.AdminUserRepository, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger.With(slog.String("component", "auth_service")),
	}
}

// Login проверяет учётные данные и возвращает подписанный JWT.
// Неизвестный email и неверный пароль неразличимы для вызывающего —
// оба случая дают ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Попытка входа с неизвестным email", slog.String("email", email))
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("поиск администратора: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("Попытка входа с неверным паролем", slog.String("email", email))
		return "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", fmt.Errorf("выдача токена: %w", err)
	}

	s.logger.Info("Администратор вошёл в систему", slog.String("email", email))
	return token, nil
}

// issueToken выдаёт HS256 JWT для администратора.
func (s *AuthService) issueToken(user *model.AdminUser) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   TokenIssuer,
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// Bootstrap создаёт начального администратора, если таблица пуста.
// Повторный запуск с существующими администраторами — no-op.
func (s *AuthService) Bootstrap(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("подсчёт администраторов: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("хеширование пароля: %w", err)
	}

	user := &model.AdminUser{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Конкурентный старт нескольких реплик: администратор уже создан
		if errors.Is(err, repository.ErrConflict) {
			return nil
		}
		return fmt.Errorf("создание администратора: %w", err)
	}

	s.logger.Info("Создан начальный администратор", slog.String("email", user.Email))
	return nil
}
