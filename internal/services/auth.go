// Файл: internal/services/auth.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hardware-request-system/internal/dto"
	"hardware-request-system/internal/entities"
	"hardware-request-system/internal/repositories"
	"hardware-request-system/pkg/config"
	"hardware-request-system/pkg/constants"
	apperrors "hardware-request-system/pkg/errors"
	"hardware-request-system/pkg/service"
	"hardware-request-system/pkg/utils"

	"go.uber.org/zap"
)

type AuthServiceInterface interface {
	Signup(ctx context.Context, payload dto.SignupDTO) (*dto.AuthResponseDTO, error)
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error)
	Me(ctx context.Context, userID uint64) (*dto.UserPublicDTO, error)
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	jwtService service.JWTService
	logger     *zap.Logger
	cfg        *config.AuthConfig
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	logger *zap.Logger,
	cfg *config.AuthConfig,
) AuthServiceInterface {
	return &AuthService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		jwtService: jwtService,
		logger:     logger,
		cfg:        cfg,
	}
}

// Signup всегда создаёт сотрудника: роль администратора выдаётся только сидером.
func (s *AuthService) Signup(ctx context.Context, payload dto.SignupDTO) (*dto.AuthResponseDTO, error) {
	hashed, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.CreateUser(ctx, &entities.User{
		Name:     strings.TrimSpace(payload.Name),
		Email:    normalizeEmail(payload.Email),
		Password: hashed,
		Role:     constants.RoleEmployee,
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrEmailTaken) {
			s.logger.Error("Signup: не удалось создать пользователя", zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("Зарегистрирован новый пользователь", zap.Uint64("userID", user.ID))
	return s.issueToken(user)
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	email := normalizeEmail(payload.Email)
	logger := s.logger.With(zap.String("email", email))
	lockoutKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, email)

	if s.isLockedOut(ctx, lockoutKey) {
		logger.Warn("Вход заблокирован: превышено число попыток")
		return nil, apperrors.ErrTooManyAttempts
	}

	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, err
		}
		s.registerFailedAttempt(ctx, lockoutKey)
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		if !errors.Is(err, apperrors.ErrInvalidCredentials) {
			logger.Error("Не удалось проверить пароль", zap.Uint64("userID", user.ID), zap.Error(err))
			return nil, err
		}
		s.registerFailedAttempt(ctx, lockoutKey)
		logger.Warn("Неверный пароль", zap.Uint64("userID", user.ID))
		return nil, err
	}

	if err := s.cacheRepo.Del(ctx, lockoutKey); err != nil {
		logger.Warn("Не удалось сбросить счётчик попыток входа", zap.Error(err))
	}
	return s.issueToken(user)
}

func (s *AuthService) Me(ctx context.Context, userID uint64) (*dto.UserPublicDTO, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := userToPublicDTO(user)
	return &out, nil
}

func (s *AuthService) issueToken(user *entities.User) (*dto.AuthResponseDTO, error) {
	token, expiresAt, err := s.jwtService.GenerateToken(user)
	if err != nil {
		s.logger.Error("Не удалось подписать токен", zap.Uint64("userID", user.ID), zap.Error(err))
		return nil, err
	}
	return &dto.AuthResponseDTO{Token: token, ExpiresAt: expiresAt, User: userToPublicDTO(user)}, nil
}

// Ошибки кэша не должны блокировать вход: без Redis просто теряется защита от перебора.
func (s *AuthService) isLockedOut(ctx context.Context, key string) bool {
	value, err := s.cacheRepo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repositories.ErrCacheMiss) {
			s.logger.Warn("Не удалось прочитать счётчик попыток входа", zap.Error(err))
		}
		return false
	}
	attempts, _ := strconv.Atoi(value)
	return attempts >= s.cfg.MaxLoginAttempts
}

func (s *AuthService) registerFailedAttempt(ctx context.Context, key string) {
	attempts, err := s.cacheRepo.Incr(ctx, key)
	if err != nil {
		s.logger.Warn("Не удалось увеличить счётчик попыток входа", zap.Error(err))
		return
	}
	if attempts == 1 {
		if _, err := s.cacheRepo.Expire(ctx, key, s.cfg.LockoutDuration); err != nil {
			s.logger.Warn("Не удалось установить срок блокировки", zap.Error(err))
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
