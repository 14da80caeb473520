package events

import (
	"time"

	"hardware-request-system/pkg/constants"
)

const RequestChangedEventName = "request.changed"

// RequestChangedEvent публикуется после фиксации транзакции, изменившей заявку.
type RequestChangedEvent struct {
	RequestID  uint64
	EmployeeID uint64
	HardwareID uint64
	EventType  string // одно из constants.HistoryEvent*
	OldStatus  string
	NewStatus  string
	ActorID    uint64
	OccurredAt time.Time
}

func (e RequestChangedEvent) Name() string {
	return RequestChangedEventName
}

func (e RequestChangedEvent) Deleted() bool {
	return e.EventType == constants.HistoryEventDeleted
}
