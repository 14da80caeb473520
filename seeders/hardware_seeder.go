package seeders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"hardware-request-system/internal/dto"
	"hardware-request-system/internal/services"
	apperrors "hardware-request-system/pkg/errors"
)

var hardwareData = []dto.CreateHardwareDTO{
	{Name: "Ноутбук Lenovo ThinkPad T14", Type: "Ноутбук", QRCode: "HW-NB-0001"},
	{Name: "Ноутбук Lenovo ThinkPad T14", Type: "Ноутбук", QRCode: "HW-NB-0002"},
	{Name: "Ноутбук Apple MacBook Air M2", Type: "Ноутбук", QRCode: "HW-NB-0003"},
	{Name: "Монитор Dell P2422H", Type: "Монитор", Description: "24 дюйма, IPS", QRCode: "HW-MON-0001"},
	{Name: "Монитор Dell P2422H", Type: "Монитор", Description: "24 дюйма, IPS", QRCode: "HW-MON-0002"},
	{Name: "Док-станция Lenovo USB-C", Type: "Док-станция", QRCode: "HW-DOCK-0001"},
	{Name: "Гарнитура Jabra Evolve2 40", Type: "Гарнитура", QRCode: "HW-HS-0001"},
	{Name: "Клавиатура Logitech MX Keys", Type: "Периферия", QRCode: "HW-KB-0001"},
}

// SeedHardware добавляет демонстрационный набор оборудования. Уже занятые QR-коды пропускаются.
func SeedHardware(ctx context.Context, hardwareService services.HardwareServiceInterface) error {
	log.Println("  - Наполнение таблицы 'hardware'...")

	created, skipped := 0, 0
	for _, item := range hardwareData {
		if _, err := hardwareService.CreateHardware(ctx, item); err != nil {
			if errors.Is(err, apperrors.ErrQRCodeTaken) {
				skipped++
				continue
			}
			return fmt.Errorf("оборудование %s: %w", item.QRCode, err)
		}
		created++
	}

	log.Printf("    ✅ Оборудование: добавлено %d, пропущено %d", created, skipped)
	return nil
}

// ImportHardware загружает оборудование из xlsx-файла (колонки name, type, description, qr_code).
func ImportHardware(ctx context.Context, hardwareService services.HardwareServiceInterface, path string) error {
	log.Printf("  - Импорт оборудования из %s...", path)

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("не удалось открыть файл импорта: %w", err)
	}
	defer file.Close()

	res, err := hardwareService.ImportXLSX(ctx, file)
	if err != nil {
		return err
	}
	for _, rowErr := range res.Errors {
		log.Printf("    ⚠️  %s", rowErr)
	}
	log.Printf("    ✅ Импорт: добавлено %d, пропущено %d, ошибок %d", res.Created, res.Skipped, len(res.Errors))
	return nil
}
