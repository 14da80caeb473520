package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hardware-request-system/internal/events"
	"hardware-request-system/pkg/constants"
	"hardware-request-system/pkg/eventbus"
	"hardware-request-system/pkg/websocket"
)

// Notifier - то, что нужно слушателю от websocket-хаба.
type Notifier interface {
	SendMessageToUser(userID uint64, payload interface{}, messageType string) error
	BroadcastToRole(role string, payload interface{}, messageType string) error
}

// RequestChangedPayload - тело push-сообщения. Клиенту достаточно знать, какую заявку перечитать.
type RequestChangedPayload struct {
	RequestID  uint64 `json:"request_id"`
	EmployeeID uint64 `json:"employee_id"`
	HardwareID uint64 `json:"hardware_id"`
	Event      string `json:"event"`
	OldStatus  string `json:"old_status,omitempty"`
	NewStatus  string `json:"new_status,omitempty"`
}

type NotificationListener struct {
	notifier Notifier
	logger   *zap.Logger
}

func NewNotificationListener(notifier Notifier, logger *zap.Logger) *NotificationListener {
	return &NotificationListener{notifier: notifier, logger: logger}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.RequestChangedEventName, l.HandleRequestChanged)
}

// HandleRequestChanged сообщает владельцу заявки и всем администраторам, что их копия списка устарела.
func (l *NotificationListener) HandleRequestChanged(_ context.Context, event eventbus.Event) error {
	e, ok := event.(events.RequestChangedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события %T", event)
	}

	messageType := websocket.MessageRequestChanged
	if e.Deleted() {
		messageType = websocket.MessageRequestDeleted
	}
	payload := RequestChangedPayload{
		RequestID:  e.RequestID,
		EmployeeID: e.EmployeeID,
		HardwareID: e.HardwareID,
		Event:      e.EventType,
		OldStatus:  e.OldStatus,
		NewStatus:  e.NewStatus,
	}

	if err := l.notifier.SendMessageToUser(e.EmployeeID, payload, messageType); err != nil {
		return fmt.Errorf("уведомление сотрудника %d: %w", e.EmployeeID, err)
	}
	if err := l.notifier.BroadcastToRole(constants.RoleAdmin, payload, messageType); err != nil {
		return fmt.Errorf("уведомление администраторов: %w", err)
	}

	l.logger.Debug("Отправлено уведомление об изменении заявки",
		zap.Uint64("requestID", e.RequestID),
		zap.String("event", e.EventType),
	)
	return nil
}
