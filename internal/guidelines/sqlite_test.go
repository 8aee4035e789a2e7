package guidelines

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmgx-twin-server/internal/domain"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "guidelines.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, DefaultDataset()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	want := DefaultDataset()
	assert.Equal(t, want.Version, loaded.Version)
	assert.Equal(t, want.Genes, loaded.Genes)
	assert.Equal(t, want.Drugs, loaded.Drugs)
	assert.Equal(t, want.PK, loaded.PK)
	assert.Equal(t, want.DefaultPK, loaded.DefaultPK)
	assert.Equal(t, want.Risk, loaded.Risk)
	assert.Equal(t, want.PhenotypeModifiers, loaded.PhenotypeModifiers)
}

func TestSQLiteStore_Version(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	// Empty store reports no version rather than an error.
	version, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Empty(t, version)

	require.NoError(t, store.Save(ctx, DefaultDataset()))

	version, err = store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultDatasetVersion, version)
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}

func TestSQLiteStore_SaveReplacesSnapshot(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, DefaultDataset()))

	updated := DefaultDataset()
	updated.Version = "cpic-2025.0"
	delete(updated.Drugs, "CODEINE")
	delete(updated.PK, "CODEINE")
	require.NoError(t, store.Save(ctx, updated))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cpic-2025.0", loaded.Version)
	_, ok := loaded.Drugs["CODEINE"]
	assert.False(t, ok, "replaced snapshot must not retain removed drugs")
	assert.Len(t, loaded.Drugs, 9)
}

func TestSQLiteStore_RoundTripPreservesRiskPolarity(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, DefaultDataset()))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.RiskToxic, loaded.Risk.RiskFor(domain.DirectionActivation, domain.CodeURM))
	assert.Equal(t, domain.RiskToxic, loaded.Risk.RiskFor(domain.DirectionClearance, domain.CodePM))
}
