// Файл: pkg/customvalidator/validator.go

package customvalidator

import (
	"regexp"

	"hardware-request-system/pkg/constants"

	"github.com/go-playground/validator/v10"
)

// QR-код может быть коротким инвентарным номером, URL или base64-строкой.
var qrCodeRegex = regexp.MustCompile(`^[A-Za-z0-9._:/+=\-]{1,255}$`)

// RegisterCustomValidations регистрирует кастомные правила в переданном валидаторе.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("qrcode", isQRCode); err != nil {
		return err
	}
	if err := v.RegisterValidation("duration_kind", isDurationKind); err != nil {
		return err
	}
	return nil
}

func isQRCode(fl validator.FieldLevel) bool {
	return qrCodeRegex.MatchString(fl.Field().String())
}

func isDurationKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case constants.DurationLifetime, constants.DurationTemporary:
		return true
	}
	return false
}
