package dto

import "time"

type CreateRequestDTO struct {
	HardwareID  uint64     `json:"hardware_id" validate:"required,gt=0"`
	Description string     `json:"description" validate:"required,max=2000"`
	Duration    string     `json:"duration" validate:"required,duration_kind"`
	EndDate     *time.Time `json:"end_date" validate:"required_if=Duration temporary"`
}

// ScanHardwareDTO - тело запросов на выдачу и возврат: заявка + отсканированный QR-код.
type ScanHardwareDTO struct {
	RequestID uint64 `json:"request_id" validate:"required,gt=0"`
	QRCode    string `json:"qr_code" validate:"required,qrcode"`
}

type UpdateRequestStatusDTO struct {
	Status string `json:"status" validate:"required"`
}

type RequestDTO struct {
	ID          uint64            `json:"id"`
	EmployeeID  uint64            `json:"employee_id"`
	HardwareID  uint64            `json:"hardware_id"`
	Description string            `json:"description"`
	Duration    string            `json:"duration"`
	EndDate     *time.Time        `json:"end_date,omitempty"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Employee    *ShortUserDTO     `json:"employee,omitempty"`
	Hardware    *ShortHardwareDTO `json:"hardware,omitempty"`
}

type RequestHistoryDTO struct {
	ID         uint64    `json:"id"`
	RequestID  uint64    `json:"request_id"`
	EventType  string    `json:"event_type"`
	OldStatus  *string   `json:"old_status,omitempty"`
	NewStatus  *string   `json:"new_status,omitempty"`
	HardwareID *uint64   `json:"hardware_id,omitempty"`
	Actor      string    `json:"actor"`
	ActorID    uint64    `json:"actor_id"`
	CreatedAt  time.Time `json:"created_at"`
}
