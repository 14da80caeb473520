package entities

import (
	"time"

	"hardware-request-system/pkg/constants"
)

type User struct {
	ID       uint64 `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Email    string `json:"email" db:"email"`
	Password string `json:"-" db:"password"`
	Role     string `json:"role" db:"role"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == constants.RoleAdmin
}
