package store

import (
	"time"

	"github.com/google/uuid"
)

// Store is a supermarket or shop where prices are collected.
type Store struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Address   string     `json:"address,omitempty"`
	City      string     `json:"city"`
	State     string     `json:"state"`
	IsActive  bool       `json:"is_active"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
