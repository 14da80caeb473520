package errors

import (
	stderrors "errors"
	"fmt"
)

// Базовые виды ошибок. Любая ошибка сервиса сводится к одному из них через KindOf.
var (
	ErrNotFound     = fmt.Errorf("запись не найдена")
	ErrConflict     = fmt.Errorf("конфликт состояния")
	ErrUnauthorized = fmt.Errorf("неавторизован")
	ErrForbidden    = fmt.Errorf("доступ запрещён")
	ErrValidation   = fmt.Errorf("ошибка валидации")
	ErrPersistence  = fmt.Errorf("ошибка хранилища")
	ErrBadRequest   = fmt.Errorf("неверный запрос")
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = New(ErrUnauthorized, "неверный метод подписи токена")
	ErrInvalidToken         = New(ErrUnauthorized, "недопустимый токен")
	ErrTokenExpired         = New(ErrUnauthorized, "срок действия токена истёк")

	// Авторизация
	ErrEmptyAuthHeader    = New(ErrUnauthorized, "заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = New(ErrUnauthorized, "неверный формат заголовка авторизации")
	ErrInvalidCredentials = New(ErrUnauthorized, "неверный email или пароль")
	ErrAdminOnly          = New(ErrForbidden, "доступ только для администратора")
	ErrTooManyAttempts    = New(ErrForbidden, "слишком много попыток входа, попробуйте позже")

	// Пользователи
	ErrUserNotFound = New(ErrNotFound, "пользователь не найден")
	ErrEmailTaken   = New(ErrConflict, "пользователь с таким email уже существует")

	// Оборудование
	ErrHardwareNotFound    = New(ErrNotFound, "оборудование не найдено")
	ErrHardwareUnavailable = New(ErrConflict, "оборудование уже выдано по другой заявке")
	ErrHardwareMismatch    = New(ErrConflict, "это оборудование не привязано к заявке")
	ErrQRCodeTaken         = New(ErrConflict, "оборудование с таким QR-кодом уже существует")
	ErrLedgerInconsistent  = New(ErrPersistence, "учёт доступности оборудования рассогласован")

	// Заявки
	ErrRequestNotFound     = New(ErrNotFound, "заявка не найдена")
	ErrRequestAccessDenied = New(ErrForbidden, "нет доступа к этой заявке")
	ErrInvalidTransition   = New(ErrConflict, "недопустимый переход статуса заявки")
	ErrEndDateRequired     = New(ErrValidation, "для временной выдачи необходимо указать дату окончания")
	ErrEndDateInPast       = New(ErrValidation, "дата окончания должна быть в будущем")
	ErrStatusNotAllowed    = New(ErrValidation, "через этот метод можно установить только статус rejected")
)

// AppError - ошибка с пользовательским сообщением и видом из таксономии.
type AppError struct {
	Kind    error
	Message string
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Kind }

func New(kind error, message string) error {
	return &AppError{Kind: kind, Message: message}
}

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func (e *InvalidInputError) Unwrap() error { return ErrValidation }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// HttpError используется контроллерами, когда код ответа известен заранее.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

func NewBadRequestError(message string) *HttpError {
	return NewHttpError(400, message, ErrBadRequest, nil)
}

// Persistence оборачивает ошибку драйвера, сохраняя исходную причину.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindValidation   Kind = "validation"
	KindPersistence  Kind = "persistence"
	KindInternal     Kind = "internal"
)

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, ErrNotFound):
		return KindNotFound
	case stderrors.Is(err, ErrConflict):
		return KindConflict
	case stderrors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case stderrors.Is(err, ErrForbidden):
		return KindForbidden
	case stderrors.Is(err, ErrValidation), stderrors.Is(err, ErrBadRequest):
		return KindValidation
	case stderrors.Is(err, ErrPersistence):
		return KindPersistence
	default:
		return KindInternal
	}
}
