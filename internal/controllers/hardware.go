package controllers

import (
	"net/http"
	"strconv"

	"hardware-request-system/internal/dto"
	"hardware-request-system/internal/services"
	apperrors "hardware-request-system/pkg/errors"
	"hardware-request-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	maxImportSize        = 10 << 20
	importTimeoutSeconds = 60
)

type HardwareController struct {
	hardwareService services.HardwareServiceInterface
	logger          *zap.Logger
}

func NewHardwareController(hardwareService services.HardwareServiceInterface, logger *zap.Logger) *HardwareController {
	return &HardwareController{hardwareService: hardwareService, logger: logger}
}

// GetAvailable - список оборудования, которое можно запросить.
func (c *HardwareController) GetAvailable(ctx echo.Context) error {
	res, err := c.hardwareService.ListHardware(ctx.Request().Context(), true)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Доступное оборудование получено", http.StatusOK)
}

// GetAll - всё оборудование; ?available=true сужает до доступного.
func (c *HardwareController) GetAll(ctx echo.Context) error {
	onlyAvailable, _ := strconv.ParseBool(ctx.QueryParam("available"))
	res, err := c.hardwareService.ListHardware(ctx.Request().Context(), onlyAvailable)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование получено", http.StatusOK)
}

func (c *HardwareController) Create(ctx echo.Context) error {
	var payload dto.CreateHardwareDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.hardwareService.CreateHardware(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Оборудование добавлено", http.StatusCreated)
}

// Import принимает multipart-поле file с книгой xlsx.
func (c *HardwareController) Import(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Поле 'file' не найдено"), c.logger)
	}
	if fileHeader.Size > maxImportSize {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Файл слишком большой"), c.logger)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Не удалось открыть файл", err, nil), c.logger)
	}
	defer file.Close()

	reqCtx, cancel := utils.ContextWithTimeout(ctx, importTimeoutSeconds)
	defer cancel()

	res, err := c.hardwareService.ImportXLSX(reqCtx, file)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Импорт завершён", http.StatusOK)
}
