package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/database"
)

type storePostgres struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &storePostgres{db: db} }

func (r *storePostgres) CreateStore(ctx context.Context, s *Store) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO stores (id,name,address,city,state,is_active,created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		s.ID, s.Name, s.Address, s.City, s.State, s.IsActive, s.CreatedBy).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("this store is already registered in this city")
	}
	return err
}

func (r *storePostgres) ListStores(ctx context.Context, city, state string) ([]*Store, error) {
	query := `SELECT id,name,address,city,state,is_active,created_by,created_at,updated_at
	          FROM stores WHERE is_active`
	args := []interface{}{}
	n := 1
	if city != "" {
		query += fmt.Sprintf(` AND city=$%d`, n)
		args = append(args, city)
		n++
	}
	if state != "" {
		query += fmt.Sprintf(` AND state=$%d`, n)
		args = append(args, state)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := []*Store{}
	for rows.Next() {
		s := &Store{}
		var createdBy uuid.NullUUID
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.City, &s.State, &s.IsActive,
			&createdBy, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if createdBy.Valid {
			s.CreatedBy = &createdBy.UUID
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}
