package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type RequestHistory struct {
	ID         uint64      `json:"id" db:"id"`
	RequestID  uint64      `json:"request_id" db:"request_id"`
	ActorID    uint64      `json:"actor_id" db:"actor_id"`
	EventType  string      `json:"event_type" db:"event_type"`
	OldStatus  null.String `json:"old_status" db:"old_status"`
	NewStatus  null.String `json:"new_status" db:"new_status"`
	HardwareID null.Uint64 `json:"hardware_id" db:"hardware_id"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`

	ActorName string `json:"actor_name" db:"-"`
}
