// Файл: internal/dto/claims_dto.go
package dto

import "hardware-request-system/pkg/constants"

// UserClaims - то, что middleware кладёт в контекст запроса после проверки токена.
type UserClaims struct {
	UserID uint64
	Email  string
	Role   string
}

func (c *UserClaims) IsAdmin() bool {
	return c != nil && c.Role == constants.RoleAdmin
}
