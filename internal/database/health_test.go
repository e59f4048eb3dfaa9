package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckWithoutStores(t *testing.T) {
	status := Check(context.Background(), nil, nil)
	assert.Equal(t, StatusDisabled, status["database"])
	assert.Equal(t, StatusDisabled, status["redis"])
}

func TestCheckDatabase(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "mysql")

	mock.ExpectPing()
	assert.Equal(t, StatusUp, Check(context.Background(), db, nil)["database"])

	mock.ExpectPing().WillReturnError(errors.New("gone away"))
	assert.Equal(t, StatusDown, Check(context.Background(), db, nil)["database"])

	assert.NoError(t, mock.ExpectationsWereMet())
}
