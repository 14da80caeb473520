package repositories

import (
	"context"
	"fmt"

	"hardware-request-system/internal/entities"
	apperrors "hardware-request-system/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	hardwareTable  = "hardware"
	hardwareFields = "id, name, type, description, qr_code, available, created_at"
)

type HardwareRepositoryInterface interface {
	CreateHardware(ctx context.Context, hw *entities.Hardware) (*entities.Hardware, error)
	FindHardware(ctx context.Context, id uint64) (*entities.Hardware, error)
	FindHardwareInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Hardware, error)
	FindByQRCodeInTx(ctx context.Context, tx pgx.Tx, qrCode string) (*entities.Hardware, error)
	GetHardware(ctx context.Context, onlyAvailable bool) ([]entities.Hardware, error)
	// SetAvailabilityInTx меняет флаг только если он сейчас равен from, иначе ErrRowNotUpdated.
	SetAvailabilityInTx(ctx context.Context, tx pgx.Tx, id uint64, from, to bool) error
}

type HardwareRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewHardwareRepository(storage *pgxpool.Pool, logger *zap.Logger) HardwareRepositoryInterface {
	return &HardwareRepository{storage: storage, logger: logger}
}

func (r *HardwareRepository) CreateHardware(ctx context.Context, hw *entities.Hardware) (*entities.Hardware, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, type, description, qr_code, available)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING %s`, hardwareTable, hardwareFields)

	created, err := scanHardware(r.storage.QueryRow(ctx, query, hw.Name, hw.Type, hw.Description, hw.QRCode))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrQRCodeTaken
		}
		r.logger.Error("CreateHardware: ошибка вставки", zap.String("qrCode", hw.QRCode), zap.Error(err))
		return nil, apperrors.Persistence(err)
	}
	return created, nil
}

func (r *HardwareRepository) FindHardware(ctx context.Context, id uint64) (*entities.Hardware, error) {
	return r.findByID(ctx, r.storage, id)
}

func (r *HardwareRepository) FindHardwareInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Hardware, error) {
	return r.findByID(ctx, tx, id)
}

func (r *HardwareRepository) findByID(ctx context.Context, q querier, id uint64) (*entities.Hardware, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", hardwareFields, hardwareTable)
	hw, err := scanHardware(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dbError(err, apperrors.ErrHardwareNotFound)
	}
	return hw, nil
}

// FindByQRCodeInTx блокирует строку до конца транзакции.
func (r *HardwareRepository) FindByQRCodeInTx(ctx context.Context, tx pgx.Tx, qrCode string) (*entities.Hardware, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE qr_code = $1 FOR UPDATE", hardwareFields, hardwareTable)
	hw, err := scanHardware(tx.QueryRow(ctx, query, qrCode))
	if err != nil {
		return nil, dbError(err, apperrors.ErrHardwareNotFound)
	}
	return hw, nil
}

func (r *HardwareRepository) GetHardware(ctx context.Context, onlyAvailable bool) ([]entities.Hardware, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", hardwareFields, hardwareTable)
	if onlyAvailable {
		query += " WHERE available = TRUE"
	}
	query += " ORDER BY id"

	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	defer rows.Close()

	items := make([]entities.Hardware, 0)
	for rows.Next() {
		hw, err := scanHardware(rows)
		if err != nil {
			return nil, apperrors.Persistence(err)
		}
		items = append(items, *hw)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Persistence(err)
	}
	return items, nil
}

func (r *HardwareRepository) SetAvailabilityInTx(ctx context.Context, tx pgx.Tx, id uint64, from, to bool) error {
	query := fmt.Sprintf("UPDATE %s SET available = $1 WHERE id = $2 AND available = $3", hardwareTable)
	result, err := tx.Exec(ctx, query, to, id, from)
	if err != nil {
		return apperrors.Persistence(err)
	}
	if result.RowsAffected() == 0 {
		return ErrRowNotUpdated
	}
	return nil
}

func scanHardware(row interface{ Scan(dest ...any) error }) (*entities.Hardware, error) {
	var hw entities.Hardware
	if err := row.Scan(&hw.ID, &hw.Name, &hw.Type, &hw.Description, &hw.QRCode, &hw.Available, &hw.CreatedAt); err != nil {
		return nil, err
	}
	return &hw, nil
}
