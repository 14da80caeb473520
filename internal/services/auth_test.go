package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"hardware-request-system/internal/dto"
	"hardware-request-system/internal/entities"
	"hardware-request-system/internal/repositories/memory"
	"hardware-request-system/pkg/config"
	"hardware-request-system/pkg/constants"
	apperrors "hardware-request-system/pkg/errors"
	"hardware-request-system/pkg/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService(t *testing.T) (AuthServiceInterface, service.JWTService) {
	t.Helper()
	jwtSvc := service.NewJWTService("secret", time.Hour, zap.NewNop())
	svc := NewAuthService(memory.NewStore(), memory.NewCache(), jwtSvc, zap.NewNop(), &config.AuthConfig{
		MaxLoginAttempts: 3,
		LockoutDuration:  time.Minute,
	})
	return svc, jwtSvc
}

func TestSignup(t *testing.T) {
	svc, jwtSvc := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Signup(ctx, dto.SignupDTO{Name: " Ivan ", Email: "Ivan@Corp.Local", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ivan@corp.local", resp.User.Email)
	assert.Equal(t, "Ivan", resp.User.Name)
	assert.Equal(t, constants.RoleEmployee, resp.User.Role)

	claims, err := jwtSvc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, constants.RoleEmployee, claims.Role)

	_, err = svc.Signup(ctx, dto.SignupDTO{Name: "Dup", Email: "ivan@corp.local", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestSignupPasswordTooLongInBytes(t *testing.T) {
	svc, _ := newAuthService(t)

	// 40 кириллических символов проходят max=72 в DTO, но занимают 80 байт.
	_, err := svc.Signup(context.Background(), dto.SignupDTO{
		Name: "Ivan", Email: "ivan@corp.local", Password: strings.Repeat("ж", 40),
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestLoginCorruptedHash(t *testing.T) {
	store := memory.NewStore()
	svc := NewAuthService(store, memory.NewCache(), service.NewJWTService("secret", time.Hour, zap.NewNop()), zap.NewNop(), &config.AuthConfig{
		MaxLoginAttempts: 3,
		LockoutDuration:  time.Minute,
	})
	ctx := context.Background()
	_, err := store.CreateUser(ctx, &entities.User{Name: "Ivan", Email: "ivan@corp.local", Password: "not-a-hash", Role: constants.RoleEmployee})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginDTO{Email: "ivan@corp.local", Password: "secret1"})
	assert.Equal(t, apperrors.KindPersistence, apperrors.KindOf(err))
	assert.NotErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, dto.SignupDTO{Name: "Ivan", Email: "ivan@corp.local", Password: "secret1"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, dto.LoginDTO{Email: "IVAN@corp.local", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = svc.Login(ctx, dto.LoginDTO{Email: "ivan@corp.local", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginDTO{Email: "nobody@corp.local", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginLockout(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, dto.SignupDTO{Name: "Ivan", Email: "ivan@corp.local", Password: "secret1"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.Login(ctx, dto.LoginDTO{Email: "ivan@corp.local", Password: "wrong"})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	_, err = svc.Login(ctx, dto.LoginDTO{Email: "ivan@corp.local", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrTooManyAttempts)
}

func TestLoginSuccessResetsAttempts(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, dto.SignupDTO{Name: "Ivan", Email: "ivan@corp.local", Password: "secret1"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _ = svc.Login(ctx, dto.LoginDTO{Email: "ivan@corp.local", Password: "wrong"})
	}
	_, err = svc.Login(ctx, dto.LoginDTO{Email: "ivan@corp.local", Password: "secret1"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _ = svc.Login(ctx, dto.LoginDTO{Email: "ivan@corp.local", Password: "wrong"})
	}
	_, err = svc.Login(ctx, dto.LoginDTO{Email: "ivan@corp.local", Password: "secret1"})
	assert.NoError(t, err)
}

func TestMe(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Signup(ctx, dto.SignupDTO{Name: "Ivan", Email: "ivan@corp.local", Password: "secret1"})
	require.NoError(t, err)

	me, err := svc.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.User, *me)

	_, err = svc.Me(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
