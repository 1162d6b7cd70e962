package comparison

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/modules/analytics"
	"github.com/georgemunganga/precocerto-backend/internal/modules/contribution"
	"github.com/georgemunganga/precocerto-backend/internal/modules/plan"
	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
)

// QuoteLookback bounds how old a price may be and still count in a result.
const QuoteLookback = 7 * 24 * time.Hour

// Quoter returns the latest approved prices for a set of products.
type Quoter interface {
	LatestQuotes(ctx context.Context, productNames []string, city, state string, lookback time.Duration) ([]contribution.PriceQuote, error)
}

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req SaveRequest) (*Comparison, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Comparison, error)
	Update(ctx context.Context, userID, id uuid.UUID, req SaveRequest) (*Comparison, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Result(ctx context.Context, userID, id uuid.UUID) (*Result, error)
}

type SaveRequest struct {
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
	Items []Item `json:"items"`
}

type service struct {
	repo   Repository
	gate   *plan.Gate
	tiers  plan.TierSource
	quotes Quoter
	events analytics.Publisher
	log    *zap.Logger
}

func NewService(repo Repository, gate *plan.Gate, tiers plan.TierSource, quotes Quoter,
	events analytics.Publisher, log *zap.Logger) Service {
	return &service{repo: repo, gate: gate, tiers: tiers, quotes: quotes, events: events, log: log}
}

func (req SaveRequest) normalize() (SaveRequest, error) {
	out := SaveRequest{
		Name:  strings.TrimSpace(req.Name),
		City:  strings.TrimSpace(req.City),
		State: strings.ToUpper(strings.TrimSpace(req.State)),
	}
	if out.Name == "" {
		return out, apperr.Validation("name is required")
	}

	merged := make(map[string]int, len(req.Items))
	for _, it := range req.Items {
		name := strings.TrimSpace(it.ProductName)
		if name == "" {
			return out, apperr.Validation("item product_name is required")
		}
		if it.Quantity <= 0 {
			it.Quantity = 1
		}
		if _, seen := merged[name]; !seen {
			out.Items = append(out.Items, Item{ProductName: name})
		}
		merged[name] += it.Quantity
	}
	for i := range out.Items {
		out.Items[i].Quantity = merged[out.Items[i].ProductName]
	}
	return out, nil
}

// checkItems applies the per-list item ceiling from the local plan table.
func checkItems(tier plan.Tier, n int) error {
	if n == 0 || plan.CanUseFeature(tier, plan.FeatureComparisonItems, n-1) {
		return nil
	}
	limit := plan.Limits(tier)[plan.FeatureComparisonItems]
	return apperr.New(apperr.KindForbidden,
		fmt.Sprintf("Seu plano permite até %d itens por comparação.", limit))
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req SaveRequest) (*Comparison, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}
	tier, err := s.tiers.TierOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Remote("count comparisons", err)
	}
	if !s.gate.Allowed(ctx, userID, tier, plan.FeatureComparisons, count) {
		return nil, apperr.New(apperr.KindForbidden, "Limite de comparações do seu plano atingido.")
	}
	if err := checkItems(tier, len(req.Items)); err != nil {
		return nil, err
	}

	c := &Comparison{
		ID:     uuid.New(),
		UserID: userID,
		Name:   req.Name,
		City:   req.City,
		State:  req.State,
		Items:  req.Items,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperr.Remote("create comparison", err)
	}

	if err := s.events.Publish(ctx, analytics.Event{
		Name:   analytics.EventComparisonCreated,
		UserID: userID.String(),
		Properties: map[string]interface{}{
			"comparison_id": c.ID.String(),
			"items":         len(c.Items),
			"city":          c.City,
			"state":         c.State,
		},
	}); err != nil {
		s.log.Warn("analytics publish failed", zap.String("event", analytics.EventComparisonCreated), zap.Error(err))
	}
	return c, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*Comparison, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, req SaveRequest) (*Comparison, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}
	tier, err := s.tiers.TierOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := checkItems(tier, len(req.Items)); err != nil {
		return nil, err
	}
	c := &Comparison{
		ID:     id,
		UserID: userID,
		Name:   req.Name,
		City:   req.City,
		State:  req.State,
		Items:  req.Items,
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *service) Result(ctx context.Context, userID, id uuid.UUID) (*Result, error) {
	c, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if c.City == "" || c.State == "" {
		return nil, apperr.Validation("comparison needs a city and state to be priced")
	}

	names := make([]string, len(c.Items))
	for i, it := range c.Items {
		names[i] = it.ProductName
	}
	quotes, err := s.quotes.LatestQuotes(ctx, names, c.City, c.State, QuoteLookback)
	if err != nil {
		return nil, apperr.Remote("load price quotes", err)
	}
	return Compute(c, quotes), nil
}

// Compute prices c at every store that has at least one quoted item.
func Compute(c *Comparison, quotes []contribution.PriceQuote) *Result {
	byStore := make(map[string]map[string]contribution.PriceQuote)
	for _, q := range quotes {
		if byStore[q.StoreName] == nil {
			byStore[q.StoreName] = make(map[string]contribution.PriceQuote)
		}
		byStore[q.StoreName][q.ProductName] = q
	}

	res := &Result{ComparisonID: c.ID, Stores: make([]StoreTotal, 0, len(byStore))}
	for store, prices := range byStore {
		st := StoreTotal{StoreName: store, Total: decimal.Zero, Lines: []Line{}}
		for _, it := range c.Items {
			q, ok := prices[it.ProductName]
			if !ok {
				st.Missing = append(st.Missing, it.ProductName)
				continue
			}
			sub := q.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			st.Lines = append(st.Lines, Line{
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				UnitPrice:   q.Price,
				Subtotal:    sub,
				OfferDate:   q.OfferDate,
			})
			st.Total = st.Total.Add(sub)
		}
		res.Stores = append(res.Stores, st)
	}

	sort.Slice(res.Stores, func(i, j int) bool {
		a, b := res.Stores[i], res.Stores[j]
		if len(a.Missing) != len(b.Missing) {
			return len(a.Missing) < len(b.Missing)
		}
		if !a.Total.Equal(b.Total) {
			return a.Total.LessThan(b.Total)
		}
		return a.StoreName < b.StoreName
	})
	if len(res.Stores) > 0 {
		res.Cheapest = &res.Stores[0]
	}
	return res
}
