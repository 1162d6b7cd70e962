package alert

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/modules/analytics"
	"github.com/georgemunganga/precocerto-backend/internal/modules/contribution"
	"github.com/georgemunganga/precocerto-backend/internal/modules/notification"
	"github.com/georgemunganga/precocerto-backend/internal/modules/plan"
	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/metrics"
)

type memAlerts struct {
	mu     sync.Mutex
	alerts []*PriceAlert
}

func (m *memAlerts) Create(_ context.Context, a *PriceAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.IsActive = true
	m.alerts = append(m.alerts, a)
	return nil
}

func (m *memAlerts) ListByUser(_ context.Context, userID uuid.UUID) ([]*PriceAlert, error) {
	var out []*PriceAlert
	for _, a := range m.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAlerts) CountActive(_ context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, a := range m.alerts {
		if a.UserID == userID && a.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *memAlerts) Get(_ context.Context, userID, id uuid.UUID) (*PriceAlert, error) {
	for _, a := range m.alerts {
		if a.ID == id && a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("price alert")
}

func (m *memAlerts) Toggle(_ context.Context, userID, id uuid.UUID) (*PriceAlert, error) {
	for _, a := range m.alerts {
		if a.ID == id && a.UserID == userID {
			a.IsActive = !a.IsActive
			if a.IsActive {
				a.NotificationSent = false
			}
			return a, nil
		}
	}
	return nil, apperr.NotFound("price alert")
}

func (m *memAlerts) Delete(_ context.Context, userID, id uuid.UUID) error {
	for i, a := range m.alerts {
		if a.ID == id && a.UserID == userID {
			m.alerts = append(m.alerts[:i], m.alerts[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("price alert")
}

func (m *memAlerts) FindMatching(_ context.Context, p PriceSeen) ([]*PriceAlert, error) {
	var out []*PriceAlert
	for _, a := range m.alerts {
		if !a.IsActive || a.NotificationSent || !strings.EqualFold(a.ProductName, p.ProductName) {
			continue
		}
		if a.TargetPrice.LessThan(p.Price) {
			continue
		}
		if (a.StoreName != "" && !strings.EqualFold(a.StoreName, p.StoreName)) ||
			(a.City != "" && !strings.EqualFold(a.City, p.City)) ||
			(a.State != "" && a.State != p.State) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memAlerts) MarkTriggered(_ context.Context, id uuid.UUID, price decimal.Decimal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.alerts {
		if a.ID == id && !a.NotificationSent {
			a.NotificationSent = true
			a.CurrentPrice = decimal.NewNullDecimal(price)
			return true, nil
		}
	}
	return false, nil
}

type capturedNotice struct {
	userID uuid.UUID
	msg    notification.Message
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []capturedNotice
}

func (c *captureNotifier) NotifyUser(_ context.Context, userID uuid.UUID, msg notification.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, capturedNotice{userID, msg})
}

type fixedTier plan.Tier

func (f fixedTier) TierOf(context.Context, uuid.UUID) (plan.Tier, error) { return plan.Tier(f), nil }

type failingChecker struct{}

func (failingChecker) CheckFeatureAccess(context.Context, uuid.UUID, string) (bool, error) {
	return false, errors.New("db down")
}

func newAlertService(tier plan.Tier) (*memAlerts, *captureNotifier, Service) {
	repo := &memAlerts{}
	notifier := &captureNotifier{}
	gate := plan.NewGate(failingChecker{}, zap.NewNop())
	svc := NewService(repo, gate, fixedTier(tier), notifier, analytics.New(nil, ""), metrics.New(), zap.NewNop())
	return repo, notifier, svc
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateRespectsPlanLimit(t *testing.T) {
	_, _, svc := newAlertService(plan.Free)
	uid := uuid.New()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(context.Background(), uid, CreateRequest{ProductName: "Café", TargetPrice: dec("15")})
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), uid, CreateRequest{ProductName: "Café", TargetPrice: dec("15")})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestToggleOnRespectsPlanLimit(t *testing.T) {
	repo, _, svc := newAlertService(plan.Free)
	uid := uuid.New()
	ctx := context.Background()

	var first *PriceAlert
	for i := 0; i < 5; i++ {
		a, err := svc.Create(ctx, uid, CreateRequest{ProductName: "Café", TargetPrice: dec("15")})
		require.NoError(t, err)
		if first == nil {
			first = a
		}
	}
	off, err := svc.Toggle(ctx, uid, first.ID)
	require.NoError(t, err)
	require.False(t, off.IsActive)

	_, err = svc.Create(ctx, uid, CreateRequest{ProductName: "Arroz", TargetPrice: dec("20")})
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, uid, first.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	active, _ := repo.CountActive(ctx, uid)
	assert.Equal(t, 5, active)

	// switching off is never limited
	last := repo.alerts[len(repo.alerts)-1]
	off, err = svc.Toggle(ctx, uid, last.ID)
	require.NoError(t, err)
	assert.False(t, off.IsActive)
	on, err := svc.Toggle(ctx, uid, first.ID)
	require.NoError(t, err)
	assert.True(t, on.IsActive)
}

func TestCreateValidation(t *testing.T) {
	_, _, svc := newAlertService(plan.Premium)

	_, err := svc.Create(context.Background(), uuid.New(), CreateRequest{TargetPrice: dec("1")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Create(context.Background(), uuid.New(), CreateRequest{ProductName: "Café", TargetPrice: dec("-1")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestPriceApprovedTriggersMatchingAlertsOnce(t *testing.T) {
	_, notifier, svc := newAlertService(plan.Premium)
	uid := uuid.New()
	ctx := context.Background()

	anywhere, err := svc.Create(ctx, uid, CreateRequest{ProductName: "Café", TargetPrice: dec("15.00")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, uid, CreateRequest{ProductName: "Café", TargetPrice: dec("10.00")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, uid, CreateRequest{ProductName: "Café", TargetPrice: dec("20.00"), City: "Recife"})
	require.NoError(t, err)

	c := &contribution.Contribution{
		ID: uuid.New(), ProductName: "café", StoreName: "Loja A", City: "Campinas", State: "SP", Price: dec("14.50"),
	}
	svc.PriceApproved(ctx, c)
	svc.PriceApproved(ctx, c)
	svc.Wait()

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, uid, notifier.sent[0].userID)
	assert.Contains(t, notifier.sent[0].msg.Body, "R$ 14.50")
	assert.Equal(t, "price-alert-"+anywhere.ID.String(), notifier.sent[0].msg.Tag)
}

func TestToggleReArmsAlert(t *testing.T) {
	repo, notifier, svc := newAlertService(plan.Premium)
	uid := uuid.New()
	ctx := context.Background()

	a, err := svc.Create(ctx, uid, CreateRequest{ProductName: "Leite", TargetPrice: dec("5")})
	require.NoError(t, err)
	_, err = svc.Match(ctx, PriceSeen{ProductName: "Leite", Price: dec("4.50")})
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, uid, a.ID)
	require.NoError(t, err)
	toggled, err := svc.Toggle(ctx, uid, a.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
	assert.False(t, repo.alerts[0].NotificationSent)

	triggered, err := svc.Match(ctx, PriceSeen{ProductName: "Leite", Price: dec("4.00")})
	require.NoError(t, err)
	assert.Len(t, triggered, 1)
	svc.Wait()
	assert.Len(t, notifier.sent, 2)
}

func TestDeleteOnlyOwnAlerts(t *testing.T) {
	_, _, svc := newAlertService(plan.Premium)
	ctx := context.Background()
	a, err := svc.Create(ctx, uuid.New(), CreateRequest{ProductName: "Leite", TargetPrice: dec("5")})
	require.NoError(t, err)

	err = svc.Delete(ctx, uuid.New(), a.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, svc.Delete(ctx, a.UserID, a.ID))
}
