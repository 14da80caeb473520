package dto

import "time"

type CreateHardwareDTO struct {
	Name        string `json:"name" validate:"required,max=255"`
	Type        string `json:"type" validate:"required,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	QRCode      string `json:"qr_code" validate:"required,qrcode"`
}

type HardwareDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description *string   `json:"description,omitempty"`
	QRCode      string    `json:"qr_code"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
}

type ShortHardwareDTO struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	QRCode string `json:"qr_code"`
}

// ImportResultDTO - итог загрузки оборудования из xlsx.
type ImportResultDTO struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}
