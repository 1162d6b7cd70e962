package auth

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, email, password string) (string, error)
	IssueToken(userID uuid.UUID) (string, error)
	ParseToken(token string) (uuid.UUID, error)
}
