package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/cache"
)

// Service defines catalog business logic.
type Service interface {
	CreateProduct(ctx context.Context, userID uuid.UUID, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	SearchProducts(ctx context.Context, query, category string) ([]*Product, error)
}

// CreateProductRequest holds the data for creating a product.
type CreateProductRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Unit     string `json:"unit"`
	Barcode  string `json:"barcode"`
}

const (
	cacheNamespace = "products"
	searchLimit    = 50
)

type service struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewService(repo Repository, c cache.Cache, ttl time.Duration, log *zap.Logger) Service {
	return &service{repo: repo, cache: c, ttl: ttl, log: log}
}

func (s *service) CreateProduct(ctx context.Context, userID uuid.UUID, req CreateProductRequest) (*Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	p := &Product{
		ID:        uuid.New(),
		Name:      name,
		Category:  strings.TrimSpace(req.Category),
		Brand:     strings.TrimSpace(req.Brand),
		Unit:      strings.TrimSpace(req.Unit),
		CreatedBy: &userID,
	}
	if b := strings.TrimSpace(req.Barcode); b != "" {
		p.Barcode = &b
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	if err := s.cache.DeleteNamespace(ctx, cacheNamespace); err != nil {
		s.log.Warn("product cache invalidation failed", zap.Error(err))
	}
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// SearchProducts serves repeated queries from the cache until ttl expires.
func (s *service) SearchProducts(ctx context.Context, query, category string) ([]*Product, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	key := query + "|" + category

	var cached []*Product
	if err := cache.GetJSON(ctx, s.cache, cacheNamespace, key, &cached); err == nil {
		return cached, nil
	}

	products, err := s.repo.Search(ctx, query, category, searchLimit)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, cacheNamespace, key, products, s.ttl); err != nil {
		s.log.Warn("product cache write failed", zap.Error(err))
	}
	return products, nil
}
