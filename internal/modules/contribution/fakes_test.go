package contribution

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/precocerto-backend/internal/modules/analytics"
	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
)

var errDown = errors.New("connection refused")

// memRepo mimics the unique (user, product, store, offer_date) constraint.
type memRepo struct {
	mu      sync.Mutex
	rows    []*Contribution
	now     func() time.Time
	readErr error
	// raceOnInsert pretends another request inserted the same row first.
	raceOnInsert bool
}

func (m *memRepo) ListByUserProductStoreSince(_ context.Context, userID uuid.UUID, product, store string, since time.Time) ([]*Contribution, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.filter(func(c *Contribution) bool {
		return c.UserID == userID && c.ProductName == product && c.StoreName == store && !c.CreatedAt.Before(since)
	}), nil
}

func (m *memRepo) ListByProductLocationSince(_ context.Context, product, city, state string, since time.Time) ([]*Contribution, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.filter(func(c *Contribution) bool {
		return c.ProductName == product && c.City == city && c.State == state &&
			!c.CreatedAt.Before(since) && c.Status != StatusRejected
	}), nil
}

func (m *memRepo) Insert(_ context.Context, c *Contribution) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raceOnInsert {
		return false, nil
	}
	for _, r := range m.rows {
		if r.UserID == c.UserID && r.ProductName == c.ProductName && r.StoreName == c.StoreName && r.OfferDate.Equal(c.OfferDate) {
			return false, nil
		}
	}
	c.CreatedAt = m.now()
	cp := *c
	m.rows = append(m.rows, &cp)
	return true, nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Contribution, error) {
	rows := m.filter(func(c *Contribution) bool { return c.ID == id })
	if len(rows) == 0 {
		return nil, apperr.NotFound("contribution")
	}
	return rows[0], nil
}

func (m *memRepo) ListApproved(_ context.Context, product, city, state string, since time.Time) ([]*Contribution, error) {
	return m.filter(func(c *Contribution) bool {
		return c.Status == StatusApproved && c.ProductName == product && c.City == city &&
			c.State == state && !c.CreatedAt.Before(since)
	}), nil
}

func (m *memRepo) ListByStatus(_ context.Context, status Status, _ int) ([]*Contribution, error) {
	return m.filter(func(c *Contribution) bool { return c.Status == status }), nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status, reviewer uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id && r.Status == from {
			r.Status = to
			r.ReviewedBy = &reviewer
			return nil
		}
	}
	return apperr.Conflict("contribution was already reviewed")
}

func (m *memRepo) LatestQuotes(_ context.Context, names []string, city, state string, since time.Time) ([]PriceQuote, error) {
	return nil, nil
}

func (m *memRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*Contribution
	var n int64
	for _, r := range m.rows {
		if r.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return n, nil
}

func (m *memRepo) filter(keep func(*Contribution) bool) []*Contribution {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Contribution
	for _, r := range m.rows {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

// seed stores an approved contribution by a fresh user at the current time.
func (m *memRepo) seed(product, store, city, state, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, &Contribution{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		ProductName: product,
		StoreName:   store,
		City:        city,
		State:       state,
		Price:       mustDecimal(price),
		Status:      StatusApproved,
		CreatedAt:   m.now(),
	})
}

type recordingObserver struct {
	mu       sync.Mutex
	approved []*Contribution
}

func (o *recordingObserver) PriceApproved(_ context.Context, c *Contribution) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.approved = append(o.approved, c)
}

type recordingPublisher struct {
	events []analytics.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e analytics.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
