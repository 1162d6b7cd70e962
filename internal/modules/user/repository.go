package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for user data storage.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpsertExternal(ctx context.Context, user *User) error
	DeleteByExternalID(ctx context.Context, externalID string) error
	UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error
}
