package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hardware-request-system/internal/dto"
	"hardware-request-system/internal/entities"
	"hardware-request-system/internal/events"
	"hardware-request-system/internal/repositories"
	"hardware-request-system/pkg/constants"
	apperrors "hardware-request-system/pkg/errors"
	"hardware-request-system/pkg/eventbus"
	"hardware-request-system/pkg/metrics"
	"hardware-request-system/pkg/types"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Названия переходов для метрик и логов.
const (
	transitionCreate = "create"
	transitionAccept = "accept"
	transitionReject = "reject"
	transitionDetach = "detach"
	transitionDelete = "delete"
)

type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

type RequestServiceInterface interface {
	CreateRequest(ctx context.Context, actor *dto.UserClaims, payload dto.CreateRequestDTO) (*dto.RequestDTO, error)
	ListForEmployee(ctx context.Context, employeeID uint64, filter types.Filter) ([]dto.RequestDTO, uint64, error)
	ListAll(ctx context.Context, actor *dto.UserClaims, filter types.Filter) ([]dto.RequestDTO, uint64, error)
	SetStatus(ctx context.Context, actor *dto.UserClaims, requestID uint64, status string) (*dto.RequestDTO, error)
	RejectRequest(ctx context.Context, actor *dto.UserClaims, requestID uint64) (*dto.RequestDTO, error)
	AcceptRequest(ctx context.Context, actor *dto.UserClaims, requestID uint64, qrCode string) (*dto.RequestDTO, error)
	DetachRequest(ctx context.Context, actor *dto.UserClaims, requestID uint64, qrCode string) (*dto.RequestDTO, error)
	DeleteRequest(ctx context.Context, actor *dto.UserClaims, requestID uint64) error
	GetHistory(ctx context.Context, actor *dto.UserClaims, requestID uint64) ([]dto.RequestHistoryDTO, error)
}

// RequestService ведёт заявку по жизненному циклу. Каждый переход - одна транзакция:
// блокировка оборудования, блокировка заявки, условные обновления, запись в историю.
// Событие публикуется только после фиксации.
type RequestService struct {
	txManager    repositories.TxManagerInterface
	requestRepo  repositories.RequestRepositoryInterface
	hardwareRepo repositories.HardwareRepositoryInterface
	historyRepo  repositories.RequestHistoryRepositoryInterface
	ledger       *HardwareLedger
	publisher    EventPublisher
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewRequestService(
	txManager repositories.TxManagerInterface,
	requestRepo repositories.RequestRepositoryInterface,
	hardwareRepo repositories.HardwareRepositoryInterface,
	historyRepo repositories.RequestHistoryRepositoryInterface,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) RequestServiceInterface {
	return &RequestService{
		txManager:    txManager,
		requestRepo:  requestRepo,
		hardwareRepo: hardwareRepo,
		historyRepo:  historyRepo,
		ledger:       NewHardwareLedger(hardwareRepo),
		publisher:    publisher,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, actor *dto.UserClaims, payload dto.CreateRequestDTO) (res *dto.RequestDTO, err error) {
	defer func() { s.observe(transitionCreate, err) }()

	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	req := &entities.Request{
		EmployeeID:  actor.UserID,
		HardwareID:  payload.HardwareID,
		Description: strings.TrimSpace(payload.Description),
		Duration:    payload.Duration,
		Status:      constants.RequestStatusPending,
	}
	switch payload.Duration {
	case constants.DurationLifetime:
		// endDate для бессрочной выдачи не хранится
	case constants.DurationTemporary:
		if payload.EndDate == nil {
			return nil, apperrors.ErrEndDateRequired
		}
		if !payload.EndDate.After(s.now()) {
			return nil, apperrors.ErrEndDateInPast
		}
		req.EndDate = null.TimeFrom(payload.EndDate.UTC())
	default:
		return nil, apperrors.NewInvalidInputError("неизвестный срок выдачи %q", payload.Duration)
	}

	var created *entities.Request
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		c, err := s.requestRepo.CreateRequestInTx(ctx, tx, req)
		if err != nil {
			return err
		}
		created = c
		return s.historyRepo.CreateInTx(ctx, tx, &entities.RequestHistory{
			RequestID:  created.ID,
			ActorID:    actor.UserID,
			EventType:  constants.HistoryEventCreated,
			NewStatus:  null.StringFrom(created.Status),
			HardwareID: null.Uint64From(created.HardwareID),
		})
	})
	if err != nil {
		return nil, s.fail("CreateRequest", 0, err)
	}

	s.logger.Info("Создана заявка", zap.Uint64("requestID", created.ID), zap.Uint64("employeeID", created.EmployeeID))
	s.publish(ctx, created, constants.HistoryEventCreated, "", actor.UserID)
	return s.details(ctx, created)
}

// ListForEmployee возвращает только заявки сотрудника; фильтр по employee_id из запроса игнорируется.
func (s *RequestService) ListForEmployee(ctx context.Context, employeeID uint64, filter types.Filter) ([]dto.RequestDTO, uint64, error) {
	if filter.Filter == nil {
		filter.Filter = make(map[string]interface{})
	}
	filter.Filter["employee_id"] = employeeID
	return s.list(ctx, filter)
}

func (s *RequestService) ListAll(ctx context.Context, actor *dto.UserClaims, filter types.Filter) ([]dto.RequestDTO, uint64, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperrors.ErrAdminOnly
	}
	if status, ok := filter.Filter["status"]; ok {
		for _, v := range strings.Split(fmt.Sprint(status), ",") {
			if !constants.IsValidStatus(strings.TrimSpace(v)) {
				return nil, 0, apperrors.NewInvalidInputError("неизвестный статус %q", v)
			}
		}
	}
	return s.list(ctx, filter)
}

func (s *RequestService) list(ctx context.Context, filter types.Filter) ([]dto.RequestDTO, uint64, error) {
	items, total, err := s.requestRepo.GetRequests(ctx, filter)
	if err != nil {
		s.logger.Error("Ошибка получения списка заявок", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.RequestDTO, 0, len(items))
	for _, item := range items {
		out = append(out, requestDetailsToDTO(item))
	}
	return out, total, nil
}

// SetStatus - общий метод смены статуса. Разрешён только rejected: остальные переходы
// требуют сканирования оборудования и идут через AcceptRequest/DetachRequest.
func (s *RequestService) SetStatus(ctx context.Context, actor *dto.UserClaims, requestID uint64, status string) (*dto.RequestDTO, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrAdminOnly
	}
	if status != constants.RequestStatusRejected {
		return nil, apperrors.ErrStatusNotAllowed
	}
	return s.RejectRequest(ctx, actor, requestID)
}

func (s *RequestService) RejectRequest(ctx context.Context, actor *dto.UserClaims, requestID uint64) (res *dto.RequestDTO, err error) {
	defer func() { s.observe(transitionReject, err) }()

	if !actor.IsAdmin() {
		return nil, apperrors.ErrAdminOnly
	}

	var updated entities.Request
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		req, err := s.requestRepo.FindRequestForUpdateInTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if err := s.transition(ctx, tx, req, constants.RequestStatusRejected, 0); err != nil {
			return err
		}
		updated = *req
		return s.writeHistory(ctx, tx, actor, req.ID, constants.HistoryEventRejected,
			constants.RequestStatusPending, constants.RequestStatusRejected, 0)
	})
	if err != nil {
		return nil, s.fail("RejectRequest", requestID, err)
	}

	s.logger.Info("Заявка отклонена", zap.Uint64("requestID", requestID), zap.Uint64("actorID", actor.UserID))
	s.publish(ctx, &updated, constants.HistoryEventRejected, constants.RequestStatusPending, actor.UserID)
	return s.details(ctx, &updated)
}

// AcceptRequest выдаёт оборудование по отсканированному QR-коду. Принять можно только
// заявку в pending; оборудование может отличаться от запрошенного.
func (s *RequestService) AcceptRequest(ctx context.Context, actor *dto.UserClaims, requestID uint64, qrCode string) (res *dto.RequestDTO, err error) {
	defer func() { s.observe(transitionAccept, err) }()

	if !actor.IsAdmin() {
		return nil, apperrors.ErrAdminOnly
	}

	var updated entities.Request
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		hw, err := s.hardwareRepo.FindByQRCodeInTx(ctx, tx, qrCode)
		if err != nil {
			return err
		}
		req, err := s.requestRepo.FindRequestForUpdateInTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if !constants.CanTransition(req.Status, constants.RequestStatusAccepted) {
			return apperrors.ErrInvalidTransition
		}
		if err := s.ledger.Capture(ctx, tx, hw.ID); err != nil {
			return err
		}
		if err := s.transition(ctx, tx, req, constants.RequestStatusAccepted, hw.ID); err != nil {
			return err
		}
		updated = *req
		return s.writeHistory(ctx, tx, actor, req.ID, constants.HistoryEventAccepted,
			constants.RequestStatusPending, constants.RequestStatusAccepted, hw.ID)
	})
	if err != nil {
		return nil, s.fail("AcceptRequest", requestID, err)
	}

	s.logger.Info("Оборудование выдано по заявке",
		zap.Uint64("requestID", requestID),
		zap.Uint64("hardwareID", updated.HardwareID),
		zap.Uint64("actorID", actor.UserID),
	)
	s.publish(ctx, &updated, constants.HistoryEventAccepted, constants.RequestStatusPending, actor.UserID)
	return s.details(ctx, &updated)
}

// DetachRequest принимает оборудование обратно. Отсканировать нужно именно то, что выдано по заявке.
func (s *RequestService) DetachRequest(ctx context.Context, actor *dto.UserClaims, requestID uint64, qrCode string) (res *dto.RequestDTO, err error) {
	defer func() { s.observe(transitionDetach, err) }()

	if !actor.IsAdmin() {
		return nil, apperrors.ErrAdminOnly
	}

	var updated entities.Request
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		hw, err := s.hardwareRepo.FindByQRCodeInTx(ctx, tx, qrCode)
		if err != nil {
			return err
		}
		req, err := s.requestRepo.FindRequestForUpdateInTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if !constants.CanTransition(req.Status, constants.RequestStatusDetached) {
			return apperrors.ErrInvalidTransition
		}
		if req.HardwareID != hw.ID {
			return apperrors.ErrHardwareMismatch
		}
		if err := s.transition(ctx, tx, req, constants.RequestStatusDetached, 0); err != nil {
			return err
		}
		if err := s.ledger.Release(ctx, tx, hw.ID); err != nil {
			return err
		}
		updated = *req
		return s.writeHistory(ctx, tx, actor, req.ID, constants.HistoryEventDetached,
			constants.RequestStatusAccepted, constants.RequestStatusDetached, hw.ID)
	})
	if err != nil {
		return nil, s.fail("DetachRequest", requestID, err)
	}

	s.logger.Info("Оборудование возвращено",
		zap.Uint64("requestID", requestID),
		zap.Uint64("hardwareID", updated.HardwareID),
		zap.Uint64("actorID", actor.UserID),
	)
	s.publish(ctx, &updated, constants.HistoryEventDetached, constants.RequestStatusAccepted, actor.UserID)
	return s.details(ctx, &updated)
}

// DeleteRequest удаляет заявку в обход машины состояний. Выданное по ней оборудование
// освобождается в той же транзакции. История заявки сохраняется.
func (s *RequestService) DeleteRequest(ctx context.Context, actor *dto.UserClaims, requestID uint64) (err error) {
	defer func() { s.observe(transitionDelete, err) }()

	if !actor.IsAdmin() {
		return apperrors.ErrAdminOnly
	}

	var deleted entities.Request
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		req, err := s.requestRepo.FindRequestForUpdateInTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.Status == constants.RequestStatusAccepted {
			if err := s.ledger.Release(ctx, tx, req.HardwareID); err != nil {
				return err
			}
		}
		if err := s.requestRepo.DeleteRequestInTx(ctx, tx, req.ID); err != nil {
			return err
		}
		deleted = *req
		return s.writeHistory(ctx, tx, actor, req.ID, constants.HistoryEventDeleted, req.Status, "", req.HardwareID)
	})
	if err != nil {
		return s.fail("DeleteRequest", requestID, err)
	}

	s.logger.Info("Заявка удалена",
		zap.Uint64("requestID", requestID),
		zap.String("status", deleted.Status),
		zap.Uint64("actorID", actor.UserID),
	)
	oldStatus := deleted.Status
	deleted.Status = ""
	s.publish(ctx, &deleted, constants.HistoryEventDeleted, oldStatus, actor.UserID)
	return nil
}

// GetHistory доступна администратору и владельцу заявки. История удалённой заявки - только администратору.
func (s *RequestService) GetHistory(ctx context.Context, actor *dto.UserClaims, requestID uint64) ([]dto.RequestHistoryDTO, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		req, err := s.requestRepo.FindRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if req.EmployeeID != actor.UserID {
			return nil, apperrors.ErrRequestAccessDenied
		}
	}

	items, err := s.historyRepo.FindByRequestID(ctx, requestID)
	if err != nil {
		s.logger.Error("Ошибка получения истории заявки", zap.Uint64("requestID", requestID), zap.Error(err))
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.ErrRequestNotFound
	}

	out := make([]dto.RequestHistoryDTO, 0, len(items))
	for _, item := range items {
		out = append(out, historyToDTO(item))
	}
	return out, nil
}

// transition - условное обновление статуса. Если строку изменили параллельно, переход недопустим.
func (s *RequestService) transition(ctx context.Context, tx pgx.Tx, req *entities.Request, to string, hardwareID uint64) error {
	if !constants.CanTransition(req.Status, to) {
		return apperrors.ErrInvalidTransition
	}
	if err := s.requestRepo.TransitionInTx(ctx, tx, req.ID, req.Status, to, hardwareID); err != nil {
		if errors.Is(err, repositories.ErrRowNotUpdated) {
			return apperrors.ErrInvalidTransition
		}
		return err
	}
	req.Status = to
	if hardwareID != 0 {
		req.HardwareID = hardwareID
	}
	req.UpdatedAt = s.now().UTC()
	return nil
}

func (s *RequestService) writeHistory(ctx context.Context, tx pgx.Tx, actor *dto.UserClaims, requestID uint64, event, oldStatus, newStatus string, hardwareID uint64) error {
	item := &entities.RequestHistory{
		RequestID: requestID,
		ActorID:   actor.UserID,
		EventType: event,
	}
	if oldStatus != "" {
		item.OldStatus = null.StringFrom(oldStatus)
	}
	if newStatus != "" {
		item.NewStatus = null.StringFrom(newStatus)
	}
	if hardwareID != 0 {
		item.HardwareID = null.Uint64From(hardwareID)
	}
	return s.historyRepo.CreateInTx(ctx, tx, item)
}

// details перечитывает заявку с полями сотрудника и оборудования уже после фиксации.
func (s *RequestService) details(ctx context.Context, req *entities.Request) (*dto.RequestDTO, error) {
	full, err := s.requestRepo.FindRequest(ctx, req.ID)
	if err != nil {
		s.logger.Warn("Не удалось перечитать заявку после изменения", zap.Uint64("requestID", req.ID), zap.Error(err))
		out := requestToDTO(*req)
		return &out, nil
	}
	out := requestDetailsToDTO(*full)
	return &out, nil
}

func (s *RequestService) publish(ctx context.Context, req *entities.Request, event, oldStatus string, actorID uint64) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, events.RequestChangedEvent{
		RequestID:  req.ID,
		EmployeeID: req.EmployeeID,
		HardwareID: req.HardwareID,
		EventType:  event,
		OldStatus:  oldStatus,
		NewStatus:  req.Status,
		ActorID:    actorID,
		OccurredAt: s.now().UTC(),
	})
}

func (s *RequestService) fail(op string, requestID uint64, err error) error {
	switch apperrors.KindOf(err) {
	case apperrors.KindPersistence, apperrors.KindInternal:
		s.logger.Error(op+": ошибка", zap.Uint64("requestID", requestID), zap.Error(err))
	default:
		s.logger.Debug(op+": отказ", zap.Uint64("requestID", requestID), zap.Error(err))
	}
	return err
}

func (s *RequestService) observe(transition string, err error) {
	result := metrics.ResultOK
	switch apperrors.KindOf(err) {
	case "":
	case apperrors.KindConflict:
		result = metrics.ResultConflict
	case apperrors.KindNotFound:
		result = metrics.ResultNotFound
	default:
		result = metrics.ResultError
	}
	s.metrics.ObserveTransition(transition, result)
}
