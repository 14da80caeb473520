package controllers

import (
	"net/http"

	"hardware-request-system/internal/dto"
	"hardware-request-system/internal/services"
	"hardware-request-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type RequestController struct {
	requestService services.RequestServiceInterface
	logger         *zap.Logger
}

func NewRequestController(requestService services.RequestServiceInterface, logger *zap.Logger) *RequestController {
	return &RequestController{requestService: requestService, logger: logger}
}

func (c *RequestController) Create(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	claims, err := utils.GetClaimsFromContext(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.CreateRequestDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.requestService.CreateRequest(reqCtx, claims, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявка создана", http.StatusCreated)
}

// GetOwn - заявки текущего пользователя. Пустой список - это 200.
func (c *RequestController) GetOwn(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	claims, err := utils.GetClaimsFromContext(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.requestService.ListForEmployee(reqCtx, claims.UserID, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявки получены", http.StatusOK, total)
}

// GetAll - все заявки для администратора. ?format=xlsx отдаёт выгрузку.
func (c *RequestController) GetAll(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	claims, err := utils.GetClaimsFromContext(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	exportXLSX := ctx.QueryParam("format") == "xlsx"
	if exportXLSX {
		filter.WithPagination = false
	}

	res, total, err := c.requestService.ListAll(reqCtx, claims, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if exportXLSX {
		return c.respondWithXLSX(ctx, res)
	}
	return utils.SuccessResponse(ctx, res, "Заявки получены", http.StatusOK, total)
}

func (c *RequestController) GetHistory(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	claims, err := utils.GetClaimsFromContext(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.requestService.GetHistory(reqCtx, claims, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "История заявки получена", http.StatusOK)
}

// UpdateStatus принимает только status=rejected.
func (c *RequestController) UpdateStatus(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	claims, err := utils.GetClaimsFromContext(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateRequestStatusDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.requestService.SetStatus(reqCtx, claims, id, payload.Status)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Статус заявки обновлён", http.StatusOK)
}

func (c *RequestController) Delete(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	claims, err := utils.GetClaimsFromContext(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.requestService.DeleteRequest(reqCtx, claims, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Заявка удалена", http.StatusOK)
}

// Assign - выдача оборудования по отсканированному QR-коду.
func (c *RequestController) Assign(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	claims, err := utils.GetClaimsFromContext(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.ScanHardwareDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.requestService.AcceptRequest(reqCtx, claims, payload.RequestID, payload.QRCode)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование выдано", http.StatusOK)
}

// Detach - возврат оборудования, сканируется QR-код выданного оборудования.
func (c *RequestController) Detach(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	claims, err := utils.GetClaimsFromContext(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.ScanHardwareDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.requestService.DetachRequest(reqCtx, claims, payload.RequestID, payload.QRCode)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование возвращено", http.StatusOK)
}
