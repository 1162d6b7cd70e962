package report

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
)

const historyMonths = 24

type Service interface {
	Save(ctx context.Context, userID uuid.UUID, req SaveRequest) (*MonthlyReport, error)
	List(ctx context.Context, userID uuid.UUID) ([]*MonthlyReport, error)
}

type SaveRequest struct {
	Month         string          `json:"month"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	TotalSaved    decimal.Decimal `json:"total_saved"`
	PurchaseCount int             `json:"purchase_count"`
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Save(ctx context.Context, userID uuid.UUID, req SaveRequest) (*MonthlyReport, error) {
	month := strings.TrimSpace(req.Month)
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, apperr.Validation("month must be formatted as YYYY-MM")
	}
	if req.TotalSpent.IsNegative() || req.TotalSaved.IsNegative() || req.PurchaseCount < 0 {
		return nil, apperr.Validation("totals and purchase_count cannot be negative")
	}

	m := &MonthlyReport{
		ID:            uuid.New(),
		UserID:        userID,
		Month:         month,
		TotalSpent:    req.TotalSpent.Round(2),
		TotalSaved:    req.TotalSaved.Round(2),
		PurchaseCount: req.PurchaseCount,
	}
	if err := s.repo.Upsert(ctx, m); err != nil {
		return nil, apperr.Remote("save monthly report", err)
	}
	return m, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*MonthlyReport, error) {
	return s.repo.ListByUser(ctx, userID, historyMonths)
}
