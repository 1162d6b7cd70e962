package suggestion

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
)

const (
	maxMessageLength = 2000
	adminPageSize    = 200
)

type Service interface {
	Submit(ctx context.Context, userID uuid.UUID, req SubmitRequest) (*Suggestion, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]*Suggestion, error)
	ListAll(ctx context.Context, status string) ([]*Suggestion, error)
}

type SubmitRequest struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Submit(ctx context.Context, userID uuid.UUID, req SubmitRequest) (*Suggestion, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(req.Kind)))
	if !kinds[kind] {
		return nil, apperr.Validation("kind must be one of product, store, feature, bug")
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, apperr.Validation("message is required")
	}
	if utf8.RuneCountInString(msg) > maxMessageLength {
		return nil, apperr.Validation("message must be at most %d characters", maxMessageLength)
	}

	sg := &Suggestion{
		ID:      uuid.New(),
		UserID:  userID,
		Kind:    kind,
		Message: msg,
		Status:  StatusOpen,
	}
	if err := s.repo.Create(ctx, sg); err != nil {
		return nil, apperr.Remote("create suggestion", err)
	}
	return sg, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]*Suggestion, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListAll(ctx context.Context, status string) ([]*Suggestion, error) {
	st := Status(strings.ToLower(strings.TrimSpace(status)))
	switch st {
	case "", StatusOpen, StatusReviewed, StatusClosed:
	default:
		return nil, apperr.Validation("unknown status %q", status)
	}
	return s.repo.List(ctx, st, adminPageSize)
}
