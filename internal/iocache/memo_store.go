package iocache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
)

// defaultMemoSize bounds the in-process front of the scan cache.
const defaultMemoSize = 4096

type memoEntry struct {
	value     []byte
	version   int
	timestamp int64
}

// MemoStore keeps recently used entries of another CacheStore in memory.
// Writes go through to the wrapped store.
type MemoStore struct {
	next  contract.CacheStore
	cache *lru.Cache[string, memoEntry]
}

var _ contract.CacheStore = &MemoStore{} // Compile-time check

// NewMemoStore wraps next with an LRU of the given size.
func NewMemoStore(next contract.CacheStore, size int) (*MemoStore, error) {
	if size <= 0 {
		size = defaultMemoSize
	}
	cache, err := lru.New[string, memoEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memo cache: %w", err)
	}
	return &MemoStore{next: next, cache: cache}, nil
}

// Get serves from memory first and remembers hits from the wrapped store.
func (ms *MemoStore) Get(key string) ([]byte, int, int64, error) {
	if e, ok := ms.cache.Get(key); ok {
		return e.value, e.version, e.timestamp, nil
	}
	value, version, ts, err := ms.next.Get(key)
	if err != nil {
		return nil, 0, 0, err
	}
	ms.cache.Add(key, memoEntry{value: value, version: version, timestamp: ts})
	return value, version, ts, nil
}

// Set writes through and remembers the entry only once the write succeeded.
func (ms *MemoStore) Set(key string, value []byte, version int, timestamp int64) error {
	if err := ms.next.Set(key, value, version, timestamp); err != nil {
		return err
	}
	ms.cache.Add(key, memoEntry{value: value, version: version, timestamp: timestamp})
	return nil
}

// GetStatus reports the wrapped store.
func (ms *MemoStore) GetStatus() (schema.CacheStatus, error) {
	return ms.next.GetStatus()
}

// Len returns the number of entries held in memory.
func (ms *MemoStore) Len() int {
	return ms.cache.Len()
}

// Close drops the memory and closes the wrapped store.
func (ms *MemoStore) Close() error {
	ms.cache.Purge()
	return ms.next.Close()
}
