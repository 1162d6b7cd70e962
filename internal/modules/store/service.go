package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/cache"
)

// Service defines store business logic.
type Service interface {
	CreateStore(ctx context.Context, userID uuid.UUID, req CreateStoreRequest) (*Store, error)
	ListStores(ctx context.Context, city, state string) ([]*Store, error)
}

// CreateStoreRequest holds data for registering a store.
type CreateStoreRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

const cacheNamespace = "stores"

type service struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewService creates a store service whose listings are cached for ttl.
func NewService(repo Repository, c cache.Cache, ttl time.Duration, log *zap.Logger) Service {
	return &service{repo: repo, cache: c, ttl: ttl, log: log}
}

func (s *service) CreateStore(ctx context.Context, userID uuid.UUID, req CreateStoreRequest) (*Store, error) {
	name := strings.TrimSpace(req.Name)
	city := strings.TrimSpace(req.City)
	state := strings.ToUpper(strings.TrimSpace(req.State))
	if name == "" || city == "" || state == "" {
		return nil, apperr.Validation("name, city and state are required")
	}
	st := &Store{
		ID:        uuid.New(),
		Name:      name,
		Address:   strings.TrimSpace(req.Address),
		City:      city,
		State:     state,
		IsActive:  true,
		CreatedBy: &userID,
	}
	if err := s.repo.CreateStore(ctx, st); err != nil {
		return nil, err
	}
	if err := s.cache.DeleteNamespace(ctx, cacheNamespace); err != nil {
		s.log.Warn("store cache invalidation failed", zap.Error(err))
	}
	return st, nil
}

func (s *service) ListStores(ctx context.Context, city, state string) ([]*Store, error) {
	state = strings.ToUpper(state)
	key := city + "|" + state

	var cached []*Store
	if err := cache.GetJSON(ctx, s.cache, cacheNamespace, key, &cached); err == nil {
		return cached, nil
	}

	stores, err := s.repo.ListStores(ctx, city, state)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, cacheNamespace, key, stores, s.ttl); err != nil {
		s.log.Warn("store cache write failed", zap.Error(err))
	}
	return stores, nil
}
