package utils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	apperrors "hardware-request-system/pkg/errors"
)

// HashPassword хеширует пароль bcrypt. Слишком длинный пароль - ошибка валидации,
// всё остальное считается внутренней ошибкой.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.NewInvalidInputError("пароль длиннее %d байт", 72)
		}
		return "", fmt.Errorf("не удалось хешировать пароль: %w", err)
	}
	return string(bytes), nil
}

// ComparePasswords возвращает ErrInvalidCredentials при несовпадении пароля.
// Повреждённый хеш в базе - ошибка хранилища, а не неверный пароль.
func ComparePasswords(hashedPassword string, plainPassword string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return apperrors.ErrInvalidCredentials
	default:
		return apperrors.Persistence(err)
	}
}

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator(v *validator.Validate) *CustomValidator {
	return &CustomValidator{validator: v}
}

// Validate отдаёт validator.ValidationErrors как есть: ErrorResponse раскладывает их по полям.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}
