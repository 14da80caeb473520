package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Hardware - физическая единица оборудования. Available меняется только при выдаче и возврате.
type Hardware struct {
	ID          uint64      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Type        string      `json:"type" db:"type"`
	Description null.String `json:"description" db:"description"`
	QRCode      string      `json:"qr_code" db:"qr_code"`
	Available   bool        `json:"available" db:"available"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
