package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/patternscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetGlobals lets each test run InitCaching afresh.
func resetGlobals(t *testing.T) {
	t.Helper()
	Manager = &CacheStoreManager{}
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	t.Cleanup(CloseCaching)
}

func TestInitCaching(t *testing.T) {
	t.Run("sqlite stores", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		historyPath := filepath.Join(dir, "history.db")

		require.NoError(t, InitCaching(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, historyPath))

		scan := Manager.GetScanStore()
		require.NotNil(t, scan)
		_, isMemo := scan.(*MemoStore)
		assert.True(t, isMemo, "sqlite cache is fronted by the memo store")
		assert.NotNil(t, Manager.GetHistoryStore())

		CloseCaching()
		_, err := os.Stat(cachePath)
		assert.NoError(t, err)
		_, err = os.Stat(historyPath)
		assert.NoError(t, err)
	})

	t.Run("idempotent", func(t *testing.T) {
		resetGlobals(t)
		cachePath := filepath.Join(t.TempDir(), "cache.db")

		assert.NoError(t, InitCaching(schema.SQLiteBackend, cachePath, "", ""))
		assert.NoError(t, InitCaching(schema.SQLiteBackend, cachePath, "", ""))
		assert.Nil(t, Manager.GetHistoryStore())

		CloseCaching()
		CloseCaching()
	})

	t.Run("none backend", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitCaching(schema.NoneBackend, "", schema.NoneBackend, ""))

		scan := Manager.GetScanStore()
		require.NotNil(t, scan)
		_, isMemo := scan.(*MemoStore)
		assert.False(t, isMemo)
	})

	t.Run("history failure closes scan store", func(t *testing.T) {
		resetGlobals(t)
		cachePath := filepath.Join(t.TempDir(), "cache.db")

		err := InitCaching(schema.SQLiteBackend, cachePath, schema.DatabaseBackend("redis"), "")
		assert.ErrorContains(t, err, "failed to initialize history store")
		assert.Nil(t, Manager.GetScanStore())
	})
}

func TestClearHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ClearHistory(schema.NoneBackend, "", ""))
	assert.Error(t, ClearHistory(schema.DatabaseBackend("redis"), "", ""))
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	resetGlobals(t)
	require.NoError(t, InitCaching(schema.NoneBackend, "", schema.NoneBackend, ""))

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			assert.NotNil(t, Manager.GetScanStore())
			assert.NotNil(t, Manager.GetHistoryStore())
		})
	}
	wg.Wait()
}
