package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"hardware-request-system/internal/dto"
	"hardware-request-system/internal/entities"
	"hardware-request-system/internal/repositories"
	apperrors "hardware-request-system/pkg/errors"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type HardwareServiceInterface interface {
	ListHardware(ctx context.Context, onlyAvailable bool) ([]dto.HardwareDTO, error)
	CreateHardware(ctx context.Context, payload dto.CreateHardwareDTO) (*dto.HardwareDTO, error)
	ImportXLSX(ctx context.Context, r io.Reader) (*dto.ImportResultDTO, error)
}

type HardwareService struct {
	hardwareRepo repositories.HardwareRepositoryInterface
	validate     *validator.Validate
	logger       *zap.Logger
}

func NewHardwareService(
	hardwareRepo repositories.HardwareRepositoryInterface,
	validate *validator.Validate,
	logger *zap.Logger,
) HardwareServiceInterface {
	return &HardwareService{
		hardwareRepo: hardwareRepo,
		validate:     validate,
		logger:       logger,
	}
}

// ListHardware с onlyAvailable=true - это список "доступного оборудования".
func (s *HardwareService) ListHardware(ctx context.Context, onlyAvailable bool) ([]dto.HardwareDTO, error) {
	items, err := s.hardwareRepo.GetHardware(ctx, onlyAvailable)
	if err != nil {
		s.logger.Error("ListHardware: ошибка получения оборудования", zap.Error(err))
		return nil, err
	}

	out := make([]dto.HardwareDTO, 0, len(items))
	for _, hw := range items {
		out = append(out, hardwareToDTO(hw))
	}
	return out, nil
}

func (s *HardwareService) CreateHardware(ctx context.Context, payload dto.CreateHardwareDTO) (*dto.HardwareDTO, error) {
	hw := &entities.Hardware{
		Name:   strings.TrimSpace(payload.Name),
		Type:   strings.TrimSpace(payload.Type),
		QRCode: strings.TrimSpace(payload.QRCode),
	}
	if desc := strings.TrimSpace(payload.Description); desc != "" {
		hw.Description = null.StringFrom(desc)
	}

	created, err := s.hardwareRepo.CreateHardware(ctx, hw)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Добавлено оборудование", zap.Uint64("hardwareID", created.ID), zap.String("qrCode", created.QRCode))
	out := hardwareToDTO(*created)
	return &out, nil
}

// Колонки файла импорта. Ищутся по заголовку первой строки без учёта регистра.
var importColumns = map[string][]string{
	"name":        {"name", "название", "наименование"},
	"type":        {"type", "тип"},
	"description": {"description", "описание"},
	"qr_code":     {"qr_code", "qrcode", "qr", "qr-код"},
}

// ImportXLSX загружает оборудование из первого листа книги.
// Строки с уже существующим QR-кодом пропускаются, невалидные попадают в Errors.
func (s *HardwareService) ImportXLSX(ctx context.Context, r io.Reader) (*dto.ImportResultDTO, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("не удалось прочитать xlsx: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, apperrors.NewInvalidInputError("не удалось прочитать лист: %v", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewInvalidInputError("файл пуст")
	}

	columns, err := mapImportHeader(rows[0])
	if err != nil {
		return nil, err
	}

	result := &dto.ImportResultDTO{}
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNo := i + 2
		payload := dto.CreateHardwareDTO{
			Name:        cell(row, columns["name"]),
			Type:        cell(row, columns["type"]),
			Description: cell(row, columns["description"]),
			QRCode:      cell(row, columns["qr_code"]),
		}
		if payload == (dto.CreateHardwareDTO{}) {
			continue
		}
		if err := s.validate.Struct(payload); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("строка %d: %v", lineNo, err))
			continue
		}

		if _, err := s.CreateHardware(ctx, payload); err != nil {
			if errors.Is(err, apperrors.ErrQRCodeTaken) {
				result.Skipped++
				continue
			}
			return nil, err
		}
		result.Created++
	}

	s.logger.Info("Импорт оборудования завершён",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func mapImportHeader(header []string) (map[string]int, error) {
	columns := map[string]int{"description": -1}
	for idx, title := range header {
		title = strings.ToLower(strings.TrimSpace(title))
		for key, aliases := range importColumns {
			for _, alias := range aliases {
				if title == alias {
					columns[key] = idx
				}
			}
		}
	}
	for _, required := range []string{"name", "type", "qr_code"} {
		if _, ok := columns[required]; !ok {
			return nil, apperrors.NewInvalidInputError("в заголовке нет колонки %q", required)
		}
	}
	return columns, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
