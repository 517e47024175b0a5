package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresBackendMock(t *testing.T) (*PostgresBackend, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewPostgresBackend(sqlxDB), mock, func() {
		sqlxDB.Close()
	}
}

func TestPostgresBackendLoad(t *testing.T) {
	backend, mock, cleanup := newPostgresBackendMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT payload FROM portal_collections").
		WithArgs("portal_students").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`[{"id":"student001"}]`)))

	payload, err := backend.Load(context.Background(), "portal_students")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"student001"}]`, string(payload))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackendLoadMissing(t *testing.T) {
	backend, mock, cleanup := newPostgresBackendMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT payload FROM portal_collections").
		WithArgs("portal_results").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, err := backend.Load(context.Background(), "portal_results")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestPostgresBackendLoadFailure(t *testing.T) {
	backend, mock, cleanup := newPostgresBackendMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT payload FROM portal_collections").
		WithArgs("portal_results").
		WillReturnError(errors.New("connection reset"))

	_, err := backend.Load(context.Background(), "portal_results")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrKeyNotFound)
	assert.Contains(t, err.Error(), "load collection portal_results")
}

func TestPostgresBackendSaveUpserts(t *testing.T) {
	backend, mock, cleanup := newPostgresBackendMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO portal_collections .* ON CONFLICT \\(key\\)").
		WithArgs("portal_results", `[]`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, backend.Save(context.Background(), "portal_results", []byte(`[]`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackendDelete(t *testing.T) {
	backend, mock, cleanup := newPostgresBackendMock(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM portal_collections").
		WithArgs("portal_results").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, backend.Delete(context.Background(), "portal_results"))
}

func TestPostgresBackendRevision(t *testing.T) {
	backend, mock, cleanup := newPostgresBackendMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT revision FROM portal_collections").
		WithArgs("portal_attendance").
		WillReturnRows(sqlmock.NewRows([]string{"revision"}).AddRow(int64(4)))
	mock.ExpectQuery("SELECT revision FROM portal_collections").
		WithArgs("portal_users").
		WillReturnRows(sqlmock.NewRows([]string{"revision"}))

	rev, err := backend.Revision(context.Background(), "portal_attendance")
	require.NoError(t, err)
	assert.Equal(t, int64(4), rev)

	rev, err = backend.Revision(context.Background(), "portal_users")
	require.NoError(t, err)
	assert.Zero(t, rev)
}
