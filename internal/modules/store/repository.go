package store

import "context"

// Repository defines store data storage.
type Repository interface {
	CreateStore(ctx context.Context, s *Store) error
	ListStores(ctx context.Context, city, state string) ([]*Store, error)
}
