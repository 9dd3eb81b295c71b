// Package iocache persists per-file scan results and pattern run history
// across invocations.
package iocache

import (
	"sync"

	"github.com/huangsam/patternscan/internal/contract"
)

// CacheStoreManager manages the scan cache and run history stores.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	scan         contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetScanStore returns the per-file scan CacheStore.
func (mgr *CacheStoreManager) GetScanStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.scan
}

// GetHistoryStore returns the run HistoryStore.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
