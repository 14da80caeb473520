package middleware

import (
	"context"
	"strings"

	"hardware-request-system/internal/dto"
	"hardware-request-system/pkg/contextkeys"
	apperrors "hardware-request-system/pkg/errors"
	"hardware-request-system/pkg/service"
	"hardware-request-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuthMiddleware struct {
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		logger:     logger,
	}
}

// Auth проверяет Bearer-токен и кладёт claims пользователя в контекст запроса.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			m.logger.Debug("AuthMiddleware: пустой заголовок Authorization")
			return utils.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, m.logger)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			m.logger.Debug("AuthMiddleware: неверный формат заголовка Authorization")
			return utils.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, m.logger)
		}

		claims, err := m.authenticate(parts[1])
		if err != nil {
			m.logger.Debug("AuthMiddleware: ошибка валидации токена", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		c.SetRequest(c.Request().WithContext(WithClaims(c.Request().Context(), claims)))
		return next(c)
	}
}

// QueryTokenAuth - вариант для websocket: браузер не может передать заголовок, токен идёт в ?token=.
func (m *AuthMiddleware) QueryTokenAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			return utils.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, m.logger)
		}
		claims, err := m.authenticate(token)
		if err != nil {
			return utils.ErrorResponse(c, err, m.logger)
		}
		c.SetRequest(c.Request().WithContext(WithClaims(c.Request().Context(), claims)))
		return next(c)
	}
}

// RequireAdmin пропускает только администраторов. Ставится после Auth.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := utils.GetClaimsFromContext(c.Request().Context())
		if err != nil {
			return utils.ErrorResponse(c, err, m.logger)
		}
		if !claims.IsAdmin() {
			m.logger.Warn("AuthMiddleware: доступ к админ-маршруту без прав",
				zap.Uint64("userID", claims.UserID),
				zap.String("path", c.Path()),
			)
			return utils.ErrorResponse(c, apperrors.ErrAdminOnly, m.logger)
		}
		return next(c)
	}
}

func (m *AuthMiddleware) authenticate(token string) (*dto.UserClaims, error) {
	parsed, err := m.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &dto.UserClaims{UserID: parsed.UserID, Email: parsed.Email, Role: parsed.Role}, nil
}

func WithClaims(ctx context.Context, claims *dto.UserClaims) context.Context {
	ctx = context.WithValue(ctx, contextkeys.ClaimsKey, claims)
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, claims.UserID)
	return context.WithValue(ctx, contextkeys.UserRoleKey, claims.Role)
}
