package migration

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatewayapi/internal/logger"
)

func TestNewProvider_Sources(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p, err := NewProvider(db)
	require.NoError(t, err)

	sources := p.ListSources()
	require.Len(t, sources, 3)
	for i, s := range sources {
		assert.Equal(t, int64(i+1), s.Version)
	}
	assert.True(t, strings.HasSuffix(sources[0].Path, "00001_create_users.sql"))
}

func TestNewProvider_NilDB(t *testing.T) {
	_, err := NewProvider(nil)
	assert.ErrorContains(t, err, "db is nil")
}

func TestRun_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(".*").WillReturnError(errors.New("connection refused"))
	mock.ExpectExec(".*").WillReturnError(errors.New("connection refused"))
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err = run(context.Background(), db, logger.Nop())
	assert.ErrorContains(t, err, "apply migrations")
}

func TestMigrationFiles(t *testing.T) {
	names, err := fs.Glob(embedMigrations, "sql/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		b, err := fs.ReadFile(embedMigrations, name)
		require.NoError(t, err)
		body := string(b)
		assert.Contains(t, body, "-- +goose Up", name)
		assert.Contains(t, body, "-- +goose Down", name)
	}
}
