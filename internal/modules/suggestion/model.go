package suggestion

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindProduct Kind = "product"
	KindStore   Kind = "store"
	KindFeature Kind = "feature"
	KindBug     Kind = "bug"
)

var kinds = map[Kind]bool{KindProduct: true, KindStore: true, KindFeature: true, KindBug: true}

type Status string

const (
	StatusOpen     Status = "open"
	StatusReviewed Status = "reviewed"
	StatusClosed   Status = "closed"
)

type Suggestion struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
