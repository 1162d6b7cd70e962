package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/database"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

const userColumns = `id, external_id, email, password_hash, first_name, last_name, plan, email_notifications, created_at, updated_at`

func scanUser(scan func(...interface{}) error) (*User, error) {
	u := &User{}
	var externalID sql.NullString
	err := scan(&u.ID, &externalID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Plan, &u.EmailNotifications, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	if externalID.Valid {
		u.ExternalID = &externalID.String
	}
	return u, nil
}

func (r *postgresRepository) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, plan)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Email, user.PasswordHash,
		user.FirstName, user.LastName, user.Plan).Scan(&user.CreatedAt, &user.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("email already registered")
	}
	return err
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row.Scan)
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row.Scan)
}

// UpsertExternal refreshes a user keyed by external_id, or inserts it. An
// existing local account with the same email is linked instead of duplicated.
func (r *postgresRepository) UpsertExternal(ctx context.Context, user *User) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, updated_at = NOW()
		WHERE external_id = $1
		RETURNING id, plan, created_at, updated_at`,
		user.ExternalID, user.Email, user.FirstName, user.LastName).
		Scan(&user.ID, &user.Plan, &user.CreatedAt, &user.UpdatedAt)
	if err == nil || !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	query := `
		INSERT INTO users (id, external_id, email, first_name, last_name, plan)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE
		SET external_id = EXCLUDED.external_id,
		    first_name  = EXCLUDED.first_name,
		    last_name   = EXCLUDED.last_name,
		    updated_at  = NOW()
		RETURNING id, plan, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, user.ID, user.ExternalID, user.Email,
		user.FirstName, user.LastName, user.Plan).
		Scan(&user.ID, &user.Plan, &user.CreatedAt, &user.UpdatedAt)
}

func (r *postgresRepository) DeleteByExternalID(ctx context.Context, externalID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE external_id = $1`, externalID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

func (r *postgresRepository) UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET plan = $1, updated_at = NOW() WHERE id = $2`, plan, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user")
	}
	return nil
}
