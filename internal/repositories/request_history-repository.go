package repositories

import (
	"context"

	"hardware-request-system/internal/entities"
	apperrors "hardware-request-system/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RequestHistoryRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, history *entities.RequestHistory) error
	FindByRequestID(ctx context.Context, requestID uint64) ([]entities.RequestHistory, error)
}

type RequestHistoryRepository struct {
	storage *pgxpool.Pool
}

func NewRequestHistoryRepository(storage *pgxpool.Pool) RequestHistoryRepositoryInterface {
	return &RequestHistoryRepository{storage: storage}
}

func (r *RequestHistoryRepository) CreateInTx(ctx context.Context, tx pgx.Tx, history *entities.RequestHistory) error {
	query := `
		INSERT INTO request_history (request_id, actor_id, event_type, old_status, new_status, hardware_id)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := tx.Exec(ctx, query,
		history.RequestID, history.ActorID, history.EventType,
		history.OldStatus, history.NewStatus, history.HardwareID)
	return apperrors.Persistence(err)
}

func (r *RequestHistoryRepository) FindByRequestID(ctx context.Context, requestID uint64) ([]entities.RequestHistory, error) {
	query := `
		SELECT
			h.id, h.request_id, h.actor_id, h.event_type, h.old_status, h.new_status, h.hardware_id, h.created_at,
			COALESCE(u.name, '')
		FROM request_history h
		LEFT JOIN users u ON h.actor_id = u.id
		WHERE h.request_id = $1
		ORDER BY h.created_at ASC, h.id ASC`

	rows, err := r.storage.Query(ctx, query, requestID)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	defer rows.Close()

	history := make([]entities.RequestHistory, 0)
	for rows.Next() {
		var h entities.RequestHistory
		if err := rows.Scan(
			&h.ID, &h.RequestID, &h.ActorID, &h.EventType, &h.OldStatus, &h.NewStatus, &h.HardwareID, &h.CreatedAt,
			&h.ActorName,
		); err != nil {
			return nil, apperrors.Persistence(err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Persistence(err)
	}
	return history, nil
}
