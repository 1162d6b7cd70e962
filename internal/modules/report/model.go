package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthlyReport is a user's spending summary for one calendar month.
type MonthlyReport struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Month         string          `json:"month"` // YYYY-MM
	TotalSpent    decimal.Decimal `json:"total_spent"`
	TotalSaved    decimal.Decimal `json:"total_saved"`
	PurchaseCount int             `json:"purchase_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
