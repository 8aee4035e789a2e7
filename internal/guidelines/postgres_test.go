package guidelines

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.MonitorPingsOption(true),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectPing()
	store, err := NewPostgresStore(db)
	require.NoError(t, err)

	return store, mock
}

func TestNewPostgresStore_NilConnection(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.Error(t, err)
}

func TestPostgresStore_Version(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT version FROM guideline_meta").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("cpic-2024.1"))

	version, err := store.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cpic-2024.1", version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_VersionEmptyStore(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT version FROM guideline_meta").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	version, err := store.Version(context.Background())
	require.NoError(t, err)
	assert.Empty(t, version)
}

func TestPostgresStore_LoadEmptyStore(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT version, payload FROM guideline_meta").
		WillReturnRows(sqlmock.NewRows([]string{"version", "payload"}))

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}

func TestPostgresStore_SaveRollsBackOnFailure(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM guideline_genes").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := store.Save(context.Background(), DefaultDataset())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
