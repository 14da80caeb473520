package repositories

import (
	"context"
	"fmt"

	apperrors "hardware-request-system/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TxManagerInterface interface {
	RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) TxManagerInterface {
	return &TxManager{pool: pool}
}

// RunInTransaction выполняет fn в одной транзакции: ошибка или паника внутри fn
// откатывают все записи, иначе транзакция коммитится.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return apperrors.Persistence(fmt.Errorf("не удалось начать транзакцию: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			// исходная ошибка важнее ошибки отката
			_ = tx.Rollback(ctx)
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = apperrors.Persistence(fmt.Errorf("ошибка при коммите транзакции: %w", commitErr))
			}
		}
	}()

	err = fn(tx)
	return err
}
