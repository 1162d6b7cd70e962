package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/cache"
)

type memProducts struct {
	rows     []*Product
	searches int
}

func (m *memProducts) Create(_ context.Context, p *Product) error {
	m.rows = append(m.rows, p)
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id uuid.UUID) (*Product, error) {
	for _, p := range m.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperr.NotFound("product")
}

func (m *memProducts) Search(_ context.Context, query, category string, limit int) ([]*Product, error) {
	m.searches++
	var out []*Product
	for _, p := range m.rows {
		if strings.Contains(strings.ToLower(p.Name), query) && (category == "" || p.Category == category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestSearchProductsUsesCache(t *testing.T) {
	repo := &memProducts{}
	svc := NewService(repo, cache.NewMemory(nil), time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, uuid.New(), CreateProductRequest{Name: "Arroz Tipo 1", Category: "grãos", Barcode: " 7891234567890 "})
	require.NoError(t, err)

	got, err := svc.SearchProducts(ctx, "ARROZ", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Barcode)
	assert.Equal(t, "7891234567890", *got[0].Barcode)

	_, err = svc.SearchProducts(ctx, "arroz", "")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.searches)

	_, err = svc.CreateProduct(ctx, uuid.New(), CreateProductRequest{Name: "Arroz Integral"})
	require.NoError(t, err)
	got, err = svc.SearchProducts(ctx, "arroz", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCreateProductRequiresName(t *testing.T) {
	svc := NewService(&memProducts{}, cache.NewMemory(nil), time.Minute, zap.NewNop())
	_, err := svc.CreateProduct(context.Background(), uuid.New(), CreateProductRequest{Name: "  "})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
