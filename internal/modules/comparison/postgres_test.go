package comparison

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListByUserEmptyRendersArray(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`FROM comparisons`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	list, err := NewPostgresRepository(db).ListByUser(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotNil(t, list)

	out, err := json.Marshal(list)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(out))
	assert.NoError(t, mock.ExpectationsWereMet())
}
