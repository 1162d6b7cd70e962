package comparison

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Comparison is a saved shopping list priced across the stores of a city.
type Comparison struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Item struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// StoreTotal is the cost of the list at one store. Items without a recent
// price are listed in Missing and left out of Total.
type StoreTotal struct {
	StoreName string          `json:"store_name"`
	Total     decimal.Decimal `json:"total"`
	Lines     []Line          `json:"lines"`
	Missing   []string        `json:"missing,omitempty"`
}

type Line struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	OfferDate   time.Time       `json:"offer_date"`
}

// Result ranks stores by how much of the list they price, then by total.
type Result struct {
	ComparisonID uuid.UUID    `json:"comparison_id"`
	Stores       []StoreTotal `json:"stores"`
	Cheapest     *StoreTotal  `json:"cheapest,omitempty"`
}
