package services

import (
	"context"
	"errors"

	"hardware-request-system/internal/repositories"
	apperrors "hardware-request-system/pkg/errors"

	"github.com/jackc/pgx/v5"
)

// HardwareLedger - единственное место, где меняется Hardware.available.
// Оба метода - условные обновления: успех означает, что флаг был в ожидаемом состоянии.
type HardwareLedger struct {
	hardwareRepo repositories.HardwareRepositoryInterface
}

func NewHardwareLedger(hardwareRepo repositories.HardwareRepositoryInterface) *HardwareLedger {
	return &HardwareLedger{hardwareRepo: hardwareRepo}
}

// Capture переводит оборудование в "выдано". Занятое оборудование - конфликт.
func (l *HardwareLedger) Capture(ctx context.Context, tx pgx.Tx, hardwareID uint64) error {
	err := l.hardwareRepo.SetAvailabilityInTx(ctx, tx, hardwareID, true, false)
	if errors.Is(err, repositories.ErrRowNotUpdated) {
		return apperrors.ErrHardwareUnavailable
	}
	return err
}

// Release возвращает оборудование. Если оно уже свободно, учёт рассогласован.
func (l *HardwareLedger) Release(ctx context.Context, tx pgx.Tx, hardwareID uint64) error {
	err := l.hardwareRepo.SetAvailabilityInTx(ctx, tx, hardwareID, false, true)
	if errors.Is(err, repositories.ErrRowNotUpdated) {
		return apperrors.ErrLedgerInconsistent
	}
	return err
}
