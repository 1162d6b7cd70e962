package alert

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/modules/analytics"
	"github.com/georgemunganga/precocerto-backend/internal/modules/contribution"
	"github.com/georgemunganga/precocerto-backend/internal/modules/notification"
	"github.com/georgemunganga/precocerto-backend/internal/modules/plan"
	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/metrics"
)

// Notifier delivers a triggered alert to its owner.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, msg notification.Message)
}

// Service manages price alerts and matches them against approved prices.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*PriceAlert, error)
	List(ctx context.Context, userID uuid.UUID) ([]*PriceAlert, error)
	Toggle(ctx context.Context, userID, id uuid.UUID) (*PriceAlert, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// Match triggers every armed alert satisfied by p and returns them.
	Match(ctx context.Context, p PriceSeen) ([]*PriceAlert, error)
	// PriceApproved lets the service observe contribution approvals.
	PriceApproved(ctx context.Context, c *contribution.Contribution)
	// Wait blocks until in-flight notifications have been handed off.
	Wait()
}

type CreateRequest struct {
	ProductName string          `json:"product_name"`
	TargetPrice decimal.Decimal `json:"target_price"`
	StoreName   string          `json:"store_name"`
	City        string          `json:"city"`
	State       string          `json:"state"`
}

type service struct {
	repo     Repository
	gate     *plan.Gate
	tiers    plan.TierSource
	notifier Notifier
	events   analytics.Publisher
	metrics  *metrics.Metrics
	log      *zap.Logger
	inflight sync.WaitGroup
}

func NewService(repo Repository, gate *plan.Gate, tiers plan.TierSource, notifier Notifier,
	events analytics.Publisher, m *metrics.Metrics, log *zap.Logger) Service {
	return &service{
		repo:     repo,
		gate:     gate,
		tiers:    tiers,
		notifier: notifier,
		events:   events,
		metrics:  m,
		log:      log,
	}
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*PriceAlert, error) {
	a := &PriceAlert{
		ID:          uuid.New(),
		UserID:      userID,
		ProductName: strings.TrimSpace(req.ProductName),
		TargetPrice: req.TargetPrice.Round(2),
		StoreName:   strings.TrimSpace(req.StoreName),
		City:        strings.TrimSpace(req.City),
		State:       strings.ToUpper(strings.TrimSpace(req.State)),
	}
	if a.ProductName == "" {
		return nil, apperr.Validation("product_name is required")
	}
	if !a.TargetPrice.IsPositive() {
		return nil, apperr.Validation("target_price must be greater than zero")
	}

	if err := s.checkQuota(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, apperr.Remote("create price alert", err)
	}
	return a, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*PriceAlert, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Toggle re-checks the plan ceiling when an inactive alert is switched back on.
func (s *service) Toggle(ctx context.Context, userID, id uuid.UUID) (*PriceAlert, error) {
	current, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !current.IsActive {
		if err := s.checkQuota(ctx, userID); err != nil {
			return nil, err
		}
	}
	return s.repo.Toggle(ctx, userID, id)
}

func (s *service) checkQuota(ctx context.Context, userID uuid.UUID) error {
	tier, err := s.tiers.TierOf(ctx, userID)
	if err != nil {
		return err
	}
	active, err := s.repo.CountActive(ctx, userID)
	if err != nil {
		return apperr.Remote("count price alerts", err)
	}
	if !s.gate.Allowed(ctx, userID, tier, plan.FeaturePriceAlerts, active) {
		return apperr.New(apperr.KindForbidden, "Limite de alertas de preço do seu plano atingido.")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *service) Match(ctx context.Context, p PriceSeen) ([]*PriceAlert, error) {
	candidates, err := s.repo.FindMatching(ctx, p)
	if err != nil {
		return nil, err
	}

	var triggered []*PriceAlert
	for _, a := range candidates {
		ok, err := s.repo.MarkTriggered(ctx, a.ID, p.Price)
		if err != nil {
			s.log.Error("mark alert triggered", zap.Stringer("alert_id", a.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		a.NotificationSent = true
		a.CurrentPrice = decimal.NewNullDecimal(p.Price)
		triggered = append(triggered, a)

		s.metrics.AlertsTriggered.Inc()
		s.publish(ctx, a, p)
		s.notify(ctx, a, p)
	}
	return triggered, nil
}

func (s *service) PriceApproved(ctx context.Context, c *contribution.Contribution) {
	_, err := s.Match(ctx, PriceSeen{
		ProductName: c.ProductName,
		StoreName:   c.StoreName,
		City:        c.City,
		State:       c.State,
		Price:       c.Price,
	})
	if err != nil {
		s.log.Error("price alert matching failed", zap.Stringer("contribution_id", c.ID), zap.Error(err))
	}
}

func (s *service) Wait() { s.inflight.Wait() }

// notify delivers outside the request so slow channels do not hold it up.
func (s *service) notify(ctx context.Context, a *PriceAlert, p PriceSeen) {
	msg := notification.Message{
		Title: fmt.Sprintf("%s baixou de preço!", a.ProductName),
		Body: fmt.Sprintf("%s está por R$ %s em %s (%s/%s). Seu alerta era R$ %s.",
			a.ProductName, p.Price.StringFixed(2), p.StoreName, p.City, p.State, a.TargetPrice.StringFixed(2)),
		URL: "/alertas",
		Tag: "price-alert-" + a.ID.String(),
	}
	detached := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.notifier.NotifyUser(detached, a.UserID, msg)
	}()
}

func (s *service) publish(ctx context.Context, a *PriceAlert, p PriceSeen) {
	err := s.events.Publish(ctx, analytics.Event{
		Name:   analytics.EventAlertTriggered,
		UserID: a.UserID.String(),
		Properties: map[string]interface{}{
			"alert_id":     a.ID.String(),
			"product_name": a.ProductName,
			"store_name":   p.StoreName,
			"price":        p.Price.StringFixed(2),
			"target_price": a.TargetPrice.StringFixed(2),
		},
	})
	if err != nil {
		s.log.Warn("analytics publish failed", zap.String("event", analytics.EventAlertTriggered), zap.Error(err))
	}
}
