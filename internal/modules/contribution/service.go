package contribution

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/modules/analytics"
	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/metrics"
)

// Service defines price contribution business logic.
type Service interface {
	// Submit validates and stores a price. A nil error with
	// Submission.Validation.IsValid == false means the price was refused.
	Submit(ctx context.Context, userID uuid.UUID, req SubmitRequest) (*Submission, error)
	ListToday(ctx context.Context, productName, city, state string) ([]*Contribution, error)
	ListForReview(ctx context.Context, status string) ([]*Contribution, error)
	Approve(ctx context.Context, reviewer, id uuid.UUID) (*Contribution, error)
	Reject(ctx context.Context, reviewer, id uuid.UUID) (*Contribution, error)
	LatestQuotes(ctx context.Context, productNames []string, city, state string, lookback time.Duration) ([]PriceQuote, error)
	// PurgeExpired deletes offers older than the retention window.
	PurgeExpired(ctx context.Context) (int64, error)
}

// SubmitRequest is a proposed price.
type SubmitRequest struct {
	ProductName string          `json:"product_name"`
	StoreName   string          `json:"store_name"`
	City        string          `json:"city"`
	State       string          `json:"state"`
	Price       decimal.Decimal `json:"price"`
}

// Submission pairs the validation verdict with the stored row, if any.
type Submission struct {
	Validation   Result        `json:"validation"`
	Contribution *Contribution `json:"contribution,omitempty"`
}

// PriceObserver is told about every price that becomes approved.
type PriceObserver interface {
	PriceApproved(ctx context.Context, c *Contribution)
}

const reviewPageSize = 100

type service struct {
	repo          Repository
	validator     *Validator
	observer      PriceObserver
	events        analytics.Publisher
	metrics       *metrics.Metrics
	retentionDays int
	log           *zap.Logger
}

func NewService(repo Repository, validator *Validator, observer PriceObserver, events analytics.Publisher,
	m *metrics.Metrics, retentionDays int, log *zap.Logger) Service {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &service{
		repo:          repo,
		validator:     validator,
		observer:      observer,
		events:        events,
		metrics:       m,
		retentionDays: retentionDays,
		log:           log,
	}
}

func (req SubmitRequest) normalize() (Contribution, error) {
	c := Contribution{
		ProductName: strings.TrimSpace(req.ProductName),
		StoreName:   strings.TrimSpace(req.StoreName),
		City:        strings.TrimSpace(req.City),
		State:       strings.ToUpper(strings.TrimSpace(req.State)),
		Price:       req.Price.Round(2),
	}
	if c.ProductName == "" || c.StoreName == "" || c.City == "" || c.State == "" {
		return c, apperr.Validation("product_name, store_name, city and state are required")
	}
	if !c.Price.IsPositive() {
		return c, apperr.Validation("price must be greater than zero")
	}
	return c, nil
}

func (s *service) Submit(ctx context.Context, userID uuid.UUID, req SubmitRequest) (*Submission, error) {
	c, err := req.normalize()
	if err != nil {
		return nil, err
	}

	result := s.validator.Validate(ctx, c, userID)
	if !result.IsValid {
		s.metrics.ContributionsValidated.WithLabelValues(string(result.Reason)).Inc()
		return &Submission{Validation: result}, nil
	}

	c.ID = uuid.New()
	c.UserID = userID
	c.OfferDate = s.validator.Today()
	c.Status = StatusApproved
	if result.Reason == ReasonOutlier {
		c.Status = StatusPending
		c.Flagged = true
		c.PriceDifference = result.PriceDifference
	}

	// The unique constraint settles submissions that raced past the check above.
	inserted, err := s.repo.Insert(ctx, &c)
	if err != nil {
		return nil, apperr.Remote("insert contribution", err)
	}
	if !inserted {
		dup := DuplicateResult()
		s.metrics.ContributionsValidated.WithLabelValues(string(dup.Reason)).Inc()
		return &Submission{Validation: dup}, nil
	}
	s.metrics.ContributionsValidated.WithLabelValues(string(result.Reason)).Inc()

	s.track(ctx, analytics.EventPriceContributed, &c)
	if c.Status == StatusApproved {
		s.observer.PriceApproved(ctx, &c)
	}
	return &Submission{Validation: result, Contribution: &c}, nil
}

func (s *service) ListToday(ctx context.Context, productName, city, state string) ([]*Contribution, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" || city == "" || state == "" {
		return nil, apperr.Validation("product, city and state are required")
	}
	return s.repo.ListApproved(ctx, productName, city, strings.ToUpper(state), s.validator.Today())
}

func (s *service) ListForReview(ctx context.Context, status string) ([]*Contribution, error) {
	st := StatusPending
	if status != "" {
		st = Status(strings.ToLower(status))
		if _, ok := validTransitions[st]; !ok {
			return nil, apperr.Validation("unknown status %q", status)
		}
	}
	return s.repo.ListByStatus(ctx, st, reviewPageSize)
}

func (s *service) Approve(ctx context.Context, reviewer, id uuid.UUID) (*Contribution, error) {
	c, err := s.review(ctx, reviewer, id, StatusApproved)
	if err != nil {
		return nil, err
	}
	s.observer.PriceApproved(ctx, c)
	return c, nil
}

func (s *service) Reject(ctx context.Context, reviewer, id uuid.UUID) (*Contribution, error) {
	return s.review(ctx, reviewer, id, StatusRejected)
}

func (s *service) review(ctx context.Context, reviewer, id uuid.UUID, next Status) (*Contribution, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(c.Status, next) {
		return nil, apperr.Conflict("cannot move contribution from " + string(c.Status) + " to " + string(next))
	}
	if err := s.repo.UpdateStatus(ctx, id, c.Status, next, reviewer); err != nil {
		return nil, err
	}
	now := time.Now()
	c.Status = next
	c.ReviewedBy = &reviewer
	c.ReviewedAt = &now

	s.log.Info("contribution reviewed",
		zap.Stringer("contribution_id", id),
		zap.Stringer("reviewer_id", reviewer),
		zap.String("status", string(next)))
	s.track(ctx, analytics.EventContributionReview, c)
	return c, nil
}

func (s *service) LatestQuotes(ctx context.Context, productNames []string, city, state string, lookback time.Duration) ([]PriceQuote, error) {
	if len(productNames) == 0 {
		return nil, nil
	}
	since := s.validator.Today().Add(-lookback)
	return s.repo.LatestQuotes(ctx, productNames, city, strings.ToUpper(state), since)
}

func (s *service) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.validator.Today().AddDate(0, 0, -s.retentionDays)
	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.metrics.OffersPurged.Add(float64(n))
	s.log.Info("expired offers purged", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	return n, nil
}

func (s *service) track(ctx context.Context, name string, c *Contribution) {
	err := s.events.Publish(ctx, analytics.Event{
		Name:   name,
		UserID: c.UserID.String(),
		Properties: map[string]interface{}{
			"contribution_id": c.ID.String(),
			"product_name":    c.ProductName,
			"store_name":      c.StoreName,
			"city":            c.City,
			"state":           c.State,
			"price":           c.Price.StringFixed(2),
			"status":          string(c.Status),
		},
	})
	if err != nil {
		s.log.Warn("analytics publish failed", zap.String("event", name), zap.Error(err))
	}
}
