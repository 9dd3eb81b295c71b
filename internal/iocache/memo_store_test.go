package iocache

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/huangsam/patternscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMemoStoreServesRepeatGetsFromMemory(t *testing.T) {
	next := &MockCacheStore{}
	next.On("Get", "k").Return([]byte("v"), 1, int64(42), nil).Once()

	ms, err := NewMemoStore(next, 8)
	require.NoError(t, err)

	for range 3 {
		value, version, ts, err := ms.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", string(value))
		assert.Equal(t, 1, version)
		assert.Equal(t, int64(42), ts)
	}
	next.AssertExpectations(t)
	assert.Equal(t, 1, ms.Len())
}

func TestMemoStoreMissIsNotRemembered(t *testing.T) {
	next := &MockCacheStore{}
	next.On("Get", "k").Return(nil, 0, int64(0), sql.ErrNoRows).Twice()

	ms, err := NewMemoStore(next, 8)
	require.NoError(t, err)

	_, _, _, err = ms.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, _, _, err = ms.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	next.AssertExpectations(t)
	assert.Zero(t, ms.Len())
}

func TestMemoStoreSetWritesThrough(t *testing.T) {
	next := &MockCacheStore{}
	next.On("Set", "k", []byte("v"), 1, int64(7)).Return(nil).Once()

	ms, err := NewMemoStore(next, 8)
	require.NoError(t, err)
	require.NoError(t, ms.Set("k", []byte("v"), 1, 7))

	// Served from memory without touching next
	value, _, _, err := ms.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(value))
	next.AssertExpectations(t)
}

func TestMemoStoreFailedSetIsNotRemembered(t *testing.T) {
	next := &MockCacheStore{}
	next.On("Set", "k", mock.Anything, 1, int64(7)).Return(errors.New("disk full"))

	ms, err := NewMemoStore(next, 8)
	require.NoError(t, err)
	assert.Error(t, ms.Set("k", []byte("v"), 1, 7))
	assert.Zero(t, ms.Len())
}

func TestMemoStoreEvictsLeastRecentlyUsed(t *testing.T) {
	next := &MockCacheStore{}
	next.On("Set", mock.Anything, mock.Anything, 1, int64(1)).Return(nil)

	ms, err := NewMemoStore(next, 2)
	require.NoError(t, err)
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, ms.Set(k, []byte(k), 1, 1))
	}
	assert.Equal(t, 2, ms.Len())

	next.On("Get", "a").Return(nil, 0, int64(0), sql.ErrNoRows).Once()
	_, _, _, err = ms.Get("a")
	assert.Error(t, err, "evicted entry falls through to the wrapped store")
	next.AssertExpectations(t)
}

func TestMemoStoreStatusAndClose(t *testing.T) {
	next := &MockCacheStore{}
	next.On("GetStatus").Return(schema.CacheStatus{Backend: "sqlite", Connected: true, TotalEntries: 3}, nil)
	next.On("Close").Return(nil)

	ms, err := NewMemoStore(next, 0)
	require.NoError(t, err)

	status, err := ms.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalEntries)
	assert.NoError(t, ms.Close())
	next.AssertExpectations(t)
}
