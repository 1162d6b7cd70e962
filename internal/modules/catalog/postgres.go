package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (id, name, category, brand, unit, barcode, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Category, p.Brand, p.Unit, p.Barcode, p.CreatedBy).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("a product with this barcode already exists")
	}
	return err
}

func scanProduct(scan func(...interface{}) error) (*Product, error) {
	p := &Product{}
	var barcode sql.NullString
	var createdBy uuid.NullUUID
	err := scan(&p.ID, &p.Name, &p.Category, &p.Brand, &p.Unit, &barcode, &createdBy,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if barcode.Valid {
		p.Barcode = &barcode.String
	}
	if createdBy.Valid {
		p.CreatedBy = &createdBy.UUID
	}
	return p, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id,name,category,brand,unit,barcode,created_by,created_at,updated_at
		FROM products WHERE id=$1`, id)
	p, err := scanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("product")
	}
	return p, err
}

func (r *postgresRepo) Search(ctx context.Context, query, category string, limit int) ([]*Product, error) {
	q := `SELECT id,name,category,brand,unit,barcode,created_by,created_at,updated_at
	      FROM products WHERE 1=1`
	args := []interface{}{}
	n := 1
	if query != "" {
		q += fmt.Sprintf(` AND LOWER(name) LIKE $%d`, n)
		args = append(args, "%"+query+"%")
		n++
	}
	if category != "" {
		q += fmt.Sprintf(` AND category=$%d`, n)
		args = append(args, category)
		n++
	}
	q += fmt.Sprintf(` ORDER BY name LIMIT $%d`, n)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
