package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Product is a grocery item in the shared catalog.
type Product struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Category  string     `json:"category,omitempty"`
	Brand     string     `json:"brand,omitempty"`
	Unit      string     `json:"unit,omitempty"`
	Barcode   *string    `json:"barcode,omitempty"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
