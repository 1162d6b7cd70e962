package alert

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceAlert fires once when a product is seen at or below TargetPrice.
// Empty StoreName, City or State match any value.
type PriceAlert struct {
	ID               uuid.UUID           `json:"id"`
	UserID           uuid.UUID           `json:"user_id"`
	ProductName      string              `json:"product_name"`
	TargetPrice      decimal.Decimal     `json:"target_price"`
	CurrentPrice     decimal.NullDecimal `json:"current_price"`
	StoreName        string              `json:"store_name,omitempty"`
	City             string              `json:"city,omitempty"`
	State            string              `json:"state,omitempty"`
	IsActive         bool                `json:"is_active"`
	NotificationSent bool                `json:"notification_sent"`
	TriggeredAt      *time.Time          `json:"triggered_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// PriceSeen is an approved price the matcher compares alerts against.
type PriceSeen struct {
	ProductName string
	StoreName   string
	City        string
	State       string
	Price       decimal.Decimal
}
