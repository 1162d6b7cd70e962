package user

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/precocerto-backend/internal/modules/plan"
	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
)

// Service defines user-related business logic.
type Service interface {
	RegisterUser(ctx context.Context, req RegisterRequest) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	SyncExternal(ctx context.Context, profile ExternalProfile) (*User, error)
	DeleteExternal(ctx context.Context, externalID string) error
	ChangePlan(ctx context.Context, id uuid.UUID, tier string) error
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

const minPasswordLength = 8

type service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters long", minPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:                 uuid.New(),
		Email:              email,
		PasswordHash:       string(hashedPassword),
		FirstName:          strings.TrimSpace(req.FirstName),
		LastName:           strings.TrimSpace(req.LastName),
		Plan:               string(plan.Free),
		EmailNotifications: true,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) SyncExternal(ctx context.Context, profile ExternalProfile) (*User, error) {
	if profile.ExternalID == "" {
		return nil, apperr.Validation("external id is required")
	}
	email, err := normalizeEmail(profile.Email)
	if err != nil {
		return nil, err
	}
	externalID := profile.ExternalID
	user := &User{
		ID:                 uuid.New(),
		ExternalID:         &externalID,
		Email:              email,
		FirstName:          profile.FirstName,
		LastName:           profile.LastName,
		Plan:               string(plan.Free),
		EmailNotifications: true,
	}
	if err := s.repo.UpsertExternal(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) DeleteExternal(ctx context.Context, externalID string) error {
	if externalID == "" {
		return apperr.Validation("external id is required")
	}
	return s.repo.DeleteByExternalID(ctx, externalID)
}

func (s *service) ChangePlan(ctx context.Context, id uuid.UUID, tier string) error {
	t, ok := plan.ParseTier(tier)
	if !ok {
		return apperr.Validation("unknown plan %q", tier)
	}
	return s.repo.UpdatePlan(ctx, id, string(t))
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperr.Validation("invalid email format")
	}
	return email, nil
}
