package controllers

import (
	"fmt"
	"net/http"
	"time"

	"hardware-request-system/internal/dto"
	"hardware-request-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var exportHeaders = []interface{}{
	"ID", "Сотрудник", "Email", "Оборудование", "Тип", "QR-код",
	"Описание", "Срок", "Дата окончания", "Статус", "Создана", "Обновлена",
}

func exportRow(r dto.RequestDTO) []interface{} {
	var employee, email, hardware, hwType, qr string
	if r.Employee != nil {
		employee, email = r.Employee.Name, r.Employee.Email
	}
	if r.Hardware != nil {
		hardware, hwType, qr = r.Hardware.Name, r.Hardware.Type, r.Hardware.QRCode
	}
	endDate := "-"
	if r.EndDate != nil {
		endDate = r.EndDate.Format("02.01.2006")
	}
	return []interface{}{
		r.ID, employee, email, hardware, hwType, qr,
		r.Description, r.Duration, endDate, r.Status,
		r.CreatedAt.Format("02.01.2006 15:04"), r.UpdatedAt.Format("02.01.2006 15:04"),
	}
}

func (c *RequestController) respondWithXLSX(ctx echo.Context, data []dto.RequestDTO) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Заявки"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	_ = f.SetSheetRow(sheet, "A1", &exportHeaders)
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", "L1", style)
	}

	for i, item := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := exportRow(item)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			c.logger.Error("Ошибка записи строки выгрузки", zap.Uint64("requestID", item.ID), zap.Error(err))
			return utils.ErrorResponse(ctx, err, c.logger)
		}
	}
	_ = f.SetColWidth(sheet, "B", "D", 25)
	_ = f.SetColWidth(sheet, "G", "G", 40)
	_ = f.SetColWidth(sheet, "K", "L", 18)

	fileName := fmt.Sprintf("requests_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
