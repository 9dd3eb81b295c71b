package core

import (
	"context"
	"sync"
	"testing"

	"github.com/huangsam/patternscan/internal/iocache"
	"github.com/stretchr/testify/assert"
)

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	mgr := &iocache.MockCacheManager{}
	ctx := WithSuppressOutput(context.Background())
	ctx = withHistoryRunID(ctx, 12345)
	ctx = contextWithCacheManager(ctx, mgr)

	const numGoroutines = 50
	var wg sync.WaitGroup
	for i := range numGoroutines {
		wg.Go(func() {
			runID, ok := getHistoryRunID(ctx)
			assert.True(t, shouldSuppressOutput(ctx), "Goroutine %d: output should be suppressed", i)
			assert.True(t, ok, "Goroutine %d: run ID should be present", i)
			assert.Equal(t, int64(12345), runID, "Goroutine %d: run ID should be 12345", i)
			assert.Same(t, mgr, cacheManagerFromContext(ctx), "Goroutine %d: cache manager should round trip", i)
		})
	}
	wg.Wait()
}

// TestContextIsolation tests that different contexts maintain isolation.
func TestContextIsolation(t *testing.T) {
	base := context.Background()
	ctx1 := withHistoryRunID(base, 1)
	ctx2 := WithSuppressOutput(base)

	id, ok := getHistoryRunID(ctx1)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
	assert.False(t, shouldSuppressOutput(ctx1))

	id, ok = getHistoryRunID(ctx2)
	assert.False(t, ok)
	assert.Zero(t, id)
	assert.True(t, shouldSuppressOutput(ctx2))

	assert.Nil(t, cacheManagerFromContext(base))
}
