package telemetry

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	require.NoError(t, err)

	err = InitSchema(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestSQLiteStore_SaveMethodCounts(t *testing.T) {
	store, err := NewSQLiteStore(setupTestDB(t))
	require.NoError(t, err)

	err = store.SaveMethodCounts("2026-01-06", map[string]MethodStats{
		"lexical":  {Count: 10},
		"semantic": {Count: 5, Errors: 2},
	})
	require.NoError(t, err)

	result, err := store.GetMethodCounts("2026-01-06", "2026-01-06")
	require.NoError(t, err)

	assert.Equal(t, MethodStats{Count: 10}, result["lexical"])
	assert.Equal(t, MethodStats{Count: 5, Errors: 2}, result["semantic"])
}

func TestSQLiteStore_SaveMethodCounts_Incremental(t *testing.T) {
	store, err := NewSQLiteStore(setupTestDB(t))
	require.NoError(t, err)

	// Given: two saves on the same day
	require.NoError(t, store.SaveMethodCounts("2026-01-06", map[string]MethodStats{"lexical": {Count: 10, Errors: 1}}))
	require.NoError(t, store.SaveMethodCounts("2026-01-06", map[string]MethodStats{"lexical": {Count: 5}}))

	// Then: counts accumulate
	result, err := store.GetMethodCounts("2026-01-06", "2026-01-06")
	require.NoError(t, err)
	assert.Equal(t, MethodStats{Count: 15, Errors: 1}, result["lexical"])
}

func TestSQLiteStore_GetMethodCounts_DateRange(t *testing.T) {
	store, err := NewSQLiteStore(setupTestDB(t))
	require.NoError(t, err)

	require.NoError(t, store.SaveMethodCounts("2026-01-05", map[string]MethodStats{"lexical": {Count: 3}}))
	require.NoError(t, store.SaveMethodCounts("2026-01-06", map[string]MethodStats{"lexical": {Count: 4}}))
	require.NoError(t, store.SaveMethodCounts("2026-01-09", map[string]MethodStats{"lexical": {Count: 100}}))

	result, err := store.GetMethodCounts("2026-01-05", "2026-01-06")
	require.NoError(t, err)
	assert.Equal(t, int64(7), result["lexical"].Count)
}

func TestSQLiteStore_LatencyCounts(t *testing.T) {
	store, err := NewSQLiteStore(setupTestDB(t))
	require.NoError(t, err)

	require.NoError(t, store.SaveLatencyCounts("2026-01-06", map[LatencyBucket]int64{BucketP10: 4, BucketP500: 1}))
	require.NoError(t, store.SaveLatencyCounts("2026-01-06", map[LatencyBucket]int64{BucketP10: 1}))

	result, err := store.GetLatencyCounts("2026-01-06", "2026-01-06")
	require.NoError(t, err)
	assert.Equal(t, int64(5), result[BucketP10])
	assert.Equal(t, int64(1), result[BucketP500])
	assert.Zero(t, result[BucketP1000])
}

func TestSQLiteStore_EmptyMapsAreNoops(t *testing.T) {
	store, err := NewSQLiteStore(setupTestDB(t))
	require.NoError(t, err)

	assert.NoError(t, store.SaveMethodCounts("2026-01-06", nil))
	assert.NoError(t, store.SaveLatencyCounts("2026-01-06", map[LatencyBucket]int64{}))
}

func TestNewSQLiteStore_NilDB(t *testing.T) {
	_, err := NewSQLiteStore(nil)
	assert.Error(t, err)
}

func TestSQLiteStore_CloseLeavesSharedDBOpen(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewSQLiteStore(db)
	require.NoError(t, err)

	require.NoError(t, store.Close())

	assert.NoError(t, db.Ping())
}

func TestOpenSQLiteStore_CreatesDatabase(t *testing.T) {
	// Given: a path in a directory that does not exist yet
	path := filepath.Join(t.TempDir(), "nested", "metrics.db")

	// When: opening the store with the pure Go driver
	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)

	// Then: it is usable and survives a reopen
	require.NoError(t, store.Ping())
	require.NoError(t, store.SaveMethodCounts("2026-01-06", map[string]MethodStats{"semantic": {Count: 2}}))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	result, err := reopened.GetMethodCounts("2026-01-01", "2026-12-31")
	require.NoError(t, err)
	assert.Equal(t, int64(2), result["semantic"].Count)
}
