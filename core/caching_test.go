package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/patternscan/core/scan"
	"github.com/huangsam/patternscan/internal/iocache"
	"github.com/huangsam/patternscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var cachedFile = scan.File{
	Path:    "/proj/components/Card.vue",
	Rel:     "components/Card.vue",
	Size:    120,
	ModTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
}

func TestGenerateCacheKey(t *testing.T) {
	base := generateCacheKey("/proj", "rules-a", cachedFile)
	assert.Len(t, base, 64)
	assert.Equal(t, base, generateCacheKey("/proj", "rules-a", cachedFile), "key must be stable")

	changedSize := cachedFile
	changedSize.Size++
	changedTime := cachedFile
	changedTime.ModTime = changedTime.ModTime.Add(time.Nanosecond)

	for name, key := range map[string]string{
		"root":  generateCacheKey("/other", "rules-a", cachedFile),
		"rules": generateCacheKey("/proj", "rules-b", cachedFile),
		"size":  generateCacheKey("/proj", "rules-a", changedSize),
		"mtime": generateCacheKey("/proj", "rules-a", changedTime),
	} {
		assert.NotEqual(t, base, key, "changing %s must change the key", name)
	}
}

func TestCachedFileRecordNilStoreBuilds(t *testing.T) {
	calls := 0
	rec, err := cachedFileRecord(nil, zap.NewNop(), "/proj", "fp", cachedFile, func() (schema.FileRecord, error) {
		calls++
		return schema.FileRecord{Path: cachedFile.Rel, LineCount: 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, rec.LineCount)
}

func TestCachedFileRecordMissStores(t *testing.T) {
	store := &iocache.MockCacheStore{}
	key := generateCacheKey("/proj", "fp", cachedFile)
	store.On("Get", key).Return(nil, 0, int64(0), errors.New("not found"))
	store.On("Set", key, mock.AnythingOfType("[]uint8"), currentCacheVersion, mock.AnythingOfType("int64")).Return(nil)

	rec, err := cachedFileRecord(store, zap.NewNop(), "/proj", "fp", cachedFile, func() (schema.FileRecord, error) {
		return schema.FileRecord{Path: cachedFile.Rel, LineCount: 4}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, rec.LineCount)
	store.AssertExpectations(t)
}

func TestCachedFileRecordHit(t *testing.T) {
	store := &iocache.MockCacheStore{}
	key := generateCacheKey("/proj", "fp", cachedFile)
	cached := schema.FileRecord{
		Path:      cachedFile.Rel,
		LineCount: 9,
		PatternHits: map[string]map[string]schema.PatternHit{
			"componentPatterns": {"sharedProps": {Count: 1, Examples: []string{"defineProps<{ a: string }>"}}},
		},
	}
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	store.On("Get", key).Return(data, currentCacheVersion, time.Now().Unix(), nil)

	rec, err := cachedFileRecord(store, zap.NewNop(), "/proj", "fp", cachedFile, func() (schema.FileRecord, error) {
		t.Fatal("builder must not run on a cache hit")
		return schema.FileRecord{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, cached, rec)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedFileRecordStaleOrOldVersion(t *testing.T) {
	data, err := json.Marshal(schema.FileRecord{Path: cachedFile.Rel, LineCount: 1})
	require.NoError(t, err)
	key := generateCacheKey("/proj", "fp", cachedFile)

	tests := []struct {
		name    string
		version int
		ts      int64
	}{
		{"stale", currentCacheVersion, time.Now().Add(-cacheTTL - time.Hour).Unix()},
		{"old version", currentCacheVersion + 1, time.Now().Unix()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &iocache.MockCacheStore{}
			store.On("Get", key).Return(data, tt.version, tt.ts, nil)
			store.On("Set", key, mock.Anything, currentCacheVersion, mock.AnythingOfType("int64")).Return(nil)

			rec, err := cachedFileRecord(store, zap.NewNop(), "/proj", "fp", cachedFile, func() (schema.FileRecord, error) {
				return schema.FileRecord{Path: cachedFile.Rel, LineCount: 2}, nil
			})
			require.NoError(t, err)
			assert.Equal(t, 2, rec.LineCount, "a rejected entry is rebuilt")
			store.AssertExpectations(t)
		})
	}
}

func TestCachedFileRecordBuildErrorNotStored(t *testing.T) {
	store := &iocache.MockCacheStore{}
	key := generateCacheKey("/proj", "fp", cachedFile)
	store.On("Get", key).Return(nil, 0, int64(0), errors.New("not found"))

	_, err := cachedFileRecord(store, zap.NewNop(), "/proj", "fp", cachedFile, func() (schema.FileRecord, error) {
		return schema.FileRecord{}, ErrNotUTF8
	})
	assert.ErrorIs(t, err, ErrNotUTF8)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedFileRecordLogsFailedWrite(t *testing.T) {
	store := &iocache.MockCacheStore{}
	key := generateCacheKey("/proj", "fp", cachedFile)
	store.On("Get", key).Return(nil, 0, int64(0), errors.New("not found"))
	store.On("Set", key, mock.Anything, currentCacheVersion, mock.AnythingOfType("int64")).Return(errors.New("database is locked"))

	core, logs := observer.New(zapcore.WarnLevel)
	rec, err := cachedFileRecord(store, zap.New(core), "/proj", "fp", cachedFile, func() (schema.FileRecord, error) {
		return schema.FileRecord{Path: cachedFile.Rel, LineCount: 5}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, rec.LineCount, "the built record survives a failed write")

	entries := logs.FilterMessage("Cannot write scan cache entry").All()
	require.Len(t, entries, 1)
	assert.Equal(t, cachedFile.Rel, entries[0].ContextMap()["path"])
	store.AssertExpectations(t)
}
