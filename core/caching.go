package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/patternscan/core/scan"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
	"go.uber.org/zap"
)

// currentCacheVersion defines the version of the cached FileRecord schema
const currentCacheVersion = 1

// cacheTTL is how long a cached record stays valid.
const cacheTTL = 7 * 24 * time.Hour

// cachedFileRecord returns the record of a file from the scan cache, or builds
// and stores it on a miss. A nil store always builds.
func cachedFileRecord(store contract.CacheStore, log *zap.Logger, root, fingerprint string, file scan.File, build func() (schema.FileRecord, error)) (schema.FileRecord, error) {
	if store == nil {
		return build()
	}

	key := generateCacheKey(root, fingerprint, file)

	// Check for cache hit
	if result := checkCacheHit(store, key); result != nil {
		return *result, nil
	}

	// Cache miss: compute and store
	return computeAndStore(store, log, key, build)
}

// checkCacheHit attempts to retrieve and validate a cached record
func checkCacheHit(store contract.CacheStore, key string) *schema.FileRecord {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version == currentCacheVersion {
		entryTimestamp := time.Unix(ts, 0)
		if time.Since(entryTimestamp) <= cacheTTL {
			var result schema.FileRecord
			if err := json.Unmarshal(data, &result); err == nil {
				return &result // Cache hit
			}
		}
	}

	return nil // Cache miss (stale or version mismatch)
}

// computeAndStore builds the record and stores it in cache. A failed write
// is logged and the built record is still returned.
func computeAndStore(store contract.CacheStore, log *zap.Logger, key string, build func() (schema.FileRecord, error)) (schema.FileRecord, error) {
	result, err := build()
	if err != nil {
		return result, err
	}

	data, err := json.Marshal(result)
	if err == nil {
		err = store.Set(key, data, currentCacheVersion, time.Now().Unix())
	}
	if err != nil {
		log.Warn("Cannot write scan cache entry", zap.String("path", result.Path), zap.Error(err))
	}

	return result, nil
}

// generateCacheKey identifies a file state scanned with a given rule set.
// Any change to size, modification time or rules produces a new key.
func generateCacheKey(root, fingerprint string, file scan.File) string {
	key := fmt.Sprintf("%s:%s:%d:%d:%s",
		root,
		file.Rel,
		file.Size,
		file.ModTime.UnixNano(),
		fingerprint,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
