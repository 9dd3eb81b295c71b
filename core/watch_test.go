package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// firstBatch runs w, applies the writes once it is watching and returns the
// first change batch.
func firstBatch(t *testing.T, w *Watcher, writes func()) []string {
	t.Helper()
	w.debounce = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) error {
			batches <- changed
			return nil
		})
	}()

	// Give the watcher time to register its directories
	time.Sleep(200 * time.Millisecond)
	writes()

	var changed []string
	select {
	case changed = <-batches:
	case <-time.After(5 * time.Second):
		t.Fatal("no change batch received")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	return changed
}

func TestWatcherBatchesChanges(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.RepoPath, "components/.keep", "")
	writeFile(t, cfg.RepoPath, "pages/index.vue", "")

	w := NewWatcher(cfg, []string{"components", "pages", "missing"})
	changed := firstBatch(t, w, func() {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.RepoPath, "components", "Card.vue"), []byte("a"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(cfg.RepoPath, "pages", "about.vue"), []byte("b"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(cfg.RepoPath, "components", "notes.txt"), []byte("c"), 0o644))
	})
	assert.Equal(t, []string{"components/Card.vue", "pages/about.vue"}, changed)
}

func TestWatcherMultiDotExtension(t *testing.T) {
	cfg := testConfig(t)
	cfg.Extensions = []string{".client.vue"}
	writeFile(t, cfg.RepoPath, "components/.keep", "")

	w := NewWatcher(cfg, []string{"components"})
	changed := firstBatch(t, w, func() {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.RepoPath, "components", "Card.vue"), []byte("a"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(cfg.RepoPath, "components", "Card.client.vue"), []byte("b"), 0o644))
	})
	assert.Equal(t, []string{"components/Card.client.vue"}, changed)
}

func TestWatcherSkipsGitignored(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.RepoPath, ".gitignore", "*.gen.vue\n")
	writeFile(t, cfg.RepoPath, "components/.keep", "")

	w := NewWatcher(cfg, []string{"components"})
	changed := firstBatch(t, w, func() {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.RepoPath, "components", "Table.gen.vue"), []byte("a"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(cfg.RepoPath, "components", "Card.vue"), []byte("b"), 0o644))
	})
	assert.Equal(t, []string{"components/Card.vue"}, changed)
}

func TestWatcherExcluded(t *testing.T) {
	cfg := testConfig(t)
	cfg.Excludes = []string{"components/generated/"}
	writeFile(t, cfg.RepoPath, ".gitignore", "*.gen.vue\n")
	w := NewWatcher(cfg, nil)

	assert.True(t, w.excluded("components/.cache/x.vue"))
	assert.True(t, w.excluded("components/generated/x.vue"))
	assert.True(t, w.excluded("components/Table.gen.vue"))
	assert.False(t, w.excluded("components/Card.vue"))

	cfg.RespectGitignore = false
	assert.False(t, NewWatcher(cfg, nil).excluded("components/Table.gen.vue"))
}
