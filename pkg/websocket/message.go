package websocket

import "time"

// Envelope - конверт сообщения. Type говорит клиенту, какое локальное состояние сбросить.
type Envelope struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Типы сообщений
const (
	MessageRequestChanged = "request.changed"
	MessageRequestDeleted = "request.deleted"
)
