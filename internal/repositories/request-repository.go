package repositories

import (
	"context"
	"fmt"

	"hardware-request-system/internal/entities"
	db "hardware-request-system/internal/infrastructure/bd"
	apperrors "hardware-request-system/pkg/errors"
	"hardware-request-system/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	requestTable  = "requests"
	requestFields = "id, employee_id, hardware_id, description, duration, end_date, status, created_at, updated_at"
)

var requestDetailsColumns = []string{
	"r.id", "r.employee_id", "r.hardware_id", "r.description", "r.duration", "r.end_date", "r.status", "r.created_at", "r.updated_at",
	"u.name", "u.email",
	"COALESCE(h.name, '')", "COALESCE(h.type, '')", "COALESCE(h.qr_code, '')",
}

// Колонки, по которым работает ?search=
var requestSearchColumns = []string{"r.description", "u.name", "h.name"}

// Поля, по которым разрешено фильтровать и сортировать список заявок.
var requestListAllowed = map[string]string{
	"id":          "r.id",
	"employee_id": "r.employee_id",
	"hardware_id": "r.hardware_id",
	"status":      "r.status",
	"duration":    "r.duration",
	"created_at":  "r.created_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type RequestRepositoryInterface interface {
	CreateRequestInTx(ctx context.Context, tx pgx.Tx, req *entities.Request) (*entities.Request, error)
	FindRequestForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Request, error)
	// TransitionInTx переводит заявку из from в to, только если статус в БД всё ещё from.
	// hardwareID != 0 перепривязывает оборудование.
	TransitionInTx(ctx context.Context, tx pgx.Tx, id uint64, from, to string, hardwareID uint64) error
	DeleteRequestInTx(ctx context.Context, tx pgx.Tx, id uint64) error
	FindRequest(ctx context.Context, id uint64) (*entities.RequestDetails, error)
	GetRequests(ctx context.Context, filter types.Filter) ([]entities.RequestDetails, uint64, error)
}

type RequestRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewRequestRepository(storage *pgxpool.Pool, logger *zap.Logger) RequestRepositoryInterface {
	return &RequestRepository{storage: storage, logger: logger}
}

func (r *RequestRepository) CreateRequestInTx(ctx context.Context, tx pgx.Tx, req *entities.Request) (*entities.Request, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (employee_id, hardware_id, description, duration, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, requestTable, requestFields)

	created, err := scanRequest(tx.QueryRow(ctx, query,
		req.EmployeeID, req.HardwareID, req.Description, req.Duration, req.EndDate, req.Status,
	))
	if err != nil {
		r.logger.Error("CreateRequestInTx: ошибка вставки заявки", zap.Uint64("employeeID", req.EmployeeID), zap.Error(err))
		return nil, apperrors.Persistence(err)
	}
	return created, nil
}

func (r *RequestRepository) FindRequestForUpdateInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Request, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 FOR UPDATE", requestFields, requestTable)
	req, err := scanRequest(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dbError(err, apperrors.ErrRequestNotFound)
	}
	return req, nil
}

func (r *RequestRepository) TransitionInTx(ctx context.Context, tx pgx.Tx, id uint64, from, to string, hardwareID uint64) error {
	builder := psql.Update(requestTable).
		Set("status", to).
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id, "status": from})
	if hardwareID != 0 {
		builder = builder.Set("hardware_id", hardwareID)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("TransitionInTx: ошибка построения запроса: %w", err)
	}

	result, err := tx.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			// uq_requests_accepted_hardware: оборудование уже выдано по другой заявке
			return apperrors.ErrHardwareUnavailable
		}
		return apperrors.Persistence(err)
	}
	if result.RowsAffected() == 0 {
		return ErrRowNotUpdated
	}
	return nil
}

func (r *RequestRepository) DeleteRequestInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", requestTable)
	result, err := tx.Exec(ctx, query, id)
	if err != nil {
		return apperrors.Persistence(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) FindRequest(ctx context.Context, id uint64) (*entities.RequestDetails, error) {
	query, args, err := detailsSelect().Where(sq.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("FindRequest: ошибка построения запроса: %w", err)
	}

	details, err := scanRequestDetails(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, dbError(err, apperrors.ErrRequestNotFound)
	}
	return details, nil
}

func (r *RequestRepository) GetRequests(ctx context.Context, filter types.Filter) ([]entities.RequestDetails, uint64, error) {
	countQuery, countArgs, err := db.ApplySearch(
		db.ApplyFilters(withDetailsJoins(psql.Select("COUNT(*)")), filter, requestListAllowed),
		filter.Search, requestSearchColumns...,
	).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("GetRequests: ошибка построения запроса: %w", err)
	}

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.Persistence(err)
	}
	if total == 0 {
		return []entities.RequestDetails{}, 0, nil
	}

	query, args, err := db.ApplyListParams(
		db.ApplySearch(detailsSelect(), filter.Search, requestSearchColumns...),
		filter, requestListAllowed, "r.created_at DESC, r.id DESC",
	).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("GetRequests: ошибка построения запроса: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("GetRequests: ошибка выборки", zap.String("query", query), zap.Error(err))
		return nil, 0, apperrors.Persistence(err)
	}
	defer rows.Close()

	list := make([]entities.RequestDetails, 0)
	for rows.Next() {
		details, err := scanRequestDetails(rows)
		if err != nil {
			return nil, 0, apperrors.Persistence(err)
		}
		list = append(list, *details)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Persistence(err)
	}
	return list, total, nil
}

func detailsSelect() sq.SelectBuilder {
	return withDetailsJoins(psql.Select(requestDetailsColumns...))
}

func withDetailsJoins(builder sq.SelectBuilder) sq.SelectBuilder {
	return builder.
		From(requestTable + " r").
		Join(userTable + " u ON u.id = r.employee_id").
		LeftJoin(hardwareTable + " h ON h.id = r.hardware_id")
}

func scanRequest(row interface{ Scan(dest ...any) error }) (*entities.Request, error) {
	var req entities.Request
	if err := row.Scan(
		&req.ID, &req.EmployeeID, &req.HardwareID, &req.Description, &req.Duration,
		&req.EndDate, &req.Status, &req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func scanRequestDetails(row interface{ Scan(dest ...any) error }) (*entities.RequestDetails, error) {
	var d entities.RequestDetails
	if err := row.Scan(
		&d.ID, &d.EmployeeID, &d.HardwareID, &d.Description, &d.Duration,
		&d.EndDate, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		&d.EmployeeName, &d.EmployeeEmail,
		&d.HardwareName, &d.HardwareType, &d.HardwareQRCode,
	); err != nil {
		return nil, err
	}
	return &d, nil
}
