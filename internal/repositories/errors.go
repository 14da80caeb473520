package repositories

import (
	"errors"

	apperrors "hardware-request-system/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrRowNotUpdated - условное обновление не нашло строку в ожидаемом состоянии.
var ErrRowNotUpdated = errors.New("строка не обновлена: состояние изменилось")

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// dbError переводит ошибку драйвера в ошибку приложения.
func dbError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return apperrors.Persistence(err)
}
