// Файл: pkg/utils/context_utils.go

package utils

import (
	"context"

	"hardware-request-system/internal/dto"
	"hardware-request-system/pkg/contextkeys"
	apperrors "hardware-request-system/pkg/errors"
)

func GetClaimsFromContext(ctx context.Context) (*dto.UserClaims, error) {
	claims, ok := ctx.Value(contextkeys.ClaimsKey).(*dto.UserClaims)
	if !ok || claims == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrUnauthorized
	}
	return userID, nil
}
