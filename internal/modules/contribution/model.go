package contribution

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the moderation state of a contribution.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// validTransitions defines the allowed moderation state machine.
var validTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {},
	StatusRejected: {},
}

// CanTransition returns true if moving from current to next is allowed.
func CanTransition(current, next Status) bool {
	for _, s := range validTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// Contribution is a user-submitted price for a product at a store. The row
// doubles as the daily offer: at most one exists per user, product, store
// and offer date.
type Contribution struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	ProductName     string          `json:"product_name"`
	StoreName       string          `json:"store_name"`
	City            string          `json:"city"`
	State           string          `json:"state"`
	Price           decimal.Decimal `json:"price"`
	OfferDate       time.Time       `json:"offer_date"`
	Status          Status          `json:"status"`
	Flagged         bool            `json:"flagged"`
	PriceDifference *float64        `json:"price_difference,omitempty"`
	ReviewedBy      *uuid.UUID      `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Reason explains a validation Result.
type Reason string

const (
	ReasonAccepted  Reason = "accepted"
	ReasonOutlier   Reason = "outlier"
	ReasonDuplicate Reason = "duplicate"
	ReasonError     Reason = "error"
)

// Result is the validator's verdict on a submission.
type Result struct {
	IsValid         bool     `json:"is_valid"`
	Message         string   `json:"message"`
	PriceDifference *float64 `json:"price_difference,omitempty"`
	Reason          Reason   `json:"reason"`
}

// PriceQuote is the most recent approved price of a product at a store.
type PriceQuote struct {
	ProductName string          `json:"product_name"`
	StoreName   string          `json:"store_name"`
	Price       decimal.Decimal `json:"price"`
	OfferDate   time.Time       `json:"offer_date"`
}
