package controllers

import (
	"strconv"

	apperrors "hardware-request-system/pkg/errors"

	"github.com/labstack/echo/v4"
)

// bindAndValidate читает JSON-тело и прогоняет его через валидатор echo.
func bindAndValidate(ctx echo.Context, payload interface{}) error {
	if err := ctx.Bind(payload); err != nil {
		return apperrors.NewBadRequestError("Неверный формат запроса")
	}
	return ctx.Validate(payload)
}

func parseIDParam(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewBadRequestError("Неверный ID")
	}
	return id, nil
}
