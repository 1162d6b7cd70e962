package report

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
)

type memReports struct {
	byKey map[string]*MonthlyReport
}

func (m *memReports) Upsert(_ context.Context, r *MonthlyReport) error {
	key := r.UserID.String() + r.Month
	if existing, ok := m.byKey[key]; ok {
		r.ID = existing.ID
	}
	m.byKey[key] = r
	return nil
}

func (m *memReports) ListByUser(_ context.Context, userID uuid.UUID, _ int) ([]*MonthlyReport, error) {
	var out []*MonthlyReport
	for _, r := range m.byKey {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestSaveOverwritesSameMonth(t *testing.T) {
	repo := &memReports{byKey: map[string]*MonthlyReport{}}
	svc := NewService(repo)
	uid := uuid.New()
	ctx := context.Background()

	first, err := svc.Save(ctx, uid, SaveRequest{Month: "2026-02", TotalSpent: decimal.RequireFromString("812.456"), PurchaseCount: 6})
	require.NoError(t, err)
	assert.Equal(t, "812.46", first.TotalSpent.StringFixed(2))

	second, err := svc.Save(ctx, uid, SaveRequest{Month: "2026-02", TotalSpent: decimal.RequireFromString("900"), TotalSaved: decimal.RequireFromString("55.10"), PurchaseCount: 7})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := svc.List(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 7, list[0].PurchaseCount)
}

func TestSaveValidation(t *testing.T) {
	svc := NewService(&memReports{byKey: map[string]*MonthlyReport{}})
	ctx := context.Background()

	for _, month := range []string{"", "2026-13", "02/2026", "2026-2"} {
		_, err := svc.Save(ctx, uuid.New(), SaveRequest{Month: month})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), month)
	}

	_, err := svc.Save(ctx, uuid.New(), SaveRequest{Month: "2026-01", TotalSpent: decimal.RequireFromString("-1")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
