package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type Request struct {
	ID          uint64    `json:"id" db:"id"`
	EmployeeID  uint64    `json:"employee_id" db:"employee_id"`
	HardwareID  uint64    `json:"hardware_id" db:"hardware_id"`
	Description string    `json:"description" db:"description"`
	Duration    string    `json:"duration" db:"duration"`
	EndDate     null.Time `json:"end_date" db:"end_date"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// RequestDetails - заявка вместе с отображаемыми полями сотрудника и оборудования.
type RequestDetails struct {
	Request

	EmployeeName  string
	EmployeeEmail string

	HardwareName   string
	HardwareType   string
	HardwareQRCode string
}
