package core

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/huangsam/patternscan/core/scan"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
)

// watchDebounce is the quiet period after the last event before a batch fires.
const watchDebounce = 500 * time.Millisecond

// ChangeHandler is called with the relative slash paths changed in one batch.
type ChangeHandler func(ctx context.Context, changed []string) error

// Watcher turns bursts of filesystem events under the watched directories
// into single change batches.
type Watcher struct {
	root     string
	dirs     []string
	opts      scan.Options
	gitignore *ignore.GitIgnore
	debounce  time.Duration
	log       *zap.Logger
}

// NewWatcher watches dirs (relative to the project root) with the collection
// options of cfg.
func NewWatcher(cfg *contract.Config, dirs []string) *Watcher {
	w := &Watcher{
		root:     cfg.RepoPath,
		dirs:     dirs,
		opts:     scan.OptionsFromConfig(cfg),
		debounce: watchDebounce,
		log:      cfg.Log(),
	}
	if w.opts.RespectGitignore {
		w.gitignore = scan.LoadGitignore(w.root, w.log)
	}
	return w
}

// Run blocks until ctx is done, calling onChange once per settled batch.
// Handler errors are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange ChangeHandler) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	for _, dir := range w.dirs {
		abs := filepath.Join(w.root, filepath.FromSlash(dir))
		if scan.Probe(abs) != schema.Present {
			continue
		}
		if err := w.addWatchDirs(fw, abs); err != nil {
			return fmt.Errorf("failed to add watch dirs: %w", err)
		}
	}
	w.log.Info("Watching for changes", zap.String("root", w.root), zap.Strings("dirs", w.dirs))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			rel, relevant := w.relevant(fw, event)
			if !relevant {
				continue
			}
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for rel := range pending {
				changed = append(changed, rel)
			}
			clear(pending)
			slices.Sort(changed)

			w.log.Debug("Change batch", zap.Strings("paths", changed))
			if err := onChange(ctx, changed); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.log.Warn("Change handler failed", zap.Error(err))
			}
		}
	}
}

// relevant reports whether an event should trigger a batch, registering new
// directories with the watcher as they appear.
func (w *Watcher) relevant(fw *fsnotify.Watcher, event fsnotify.Event) (string, bool) {
	if event.Op == fsnotify.Chmod {
		return "", false
	}
	rel := contract.RelativeSlashPath(w.root, event.Name)
	if w.excluded(rel) {
		return "", false
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addWatchDirs(fw, event.Name); err != nil {
				w.log.Warn("Cannot watch new directory", zap.String("dir", rel), zap.Error(err))
			}
			return rel, true
		}
	}

	if len(w.opts.Extensions) > 0 && !scan.HasExtension(filepath.Base(event.Name), w.opts.Extensions) {
		// Removed or renamed directories have no extension and still matter.
		return rel, event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && filepath.Ext(event.Name) == ""
	}
	return rel, true
}

func (w *Watcher) excluded(rel string) bool {
	for seg := range strings.SplitSeq(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return scan.IsIgnored(rel, w.opts, w.gitignore)
}

// addWatchDirs recursively adds directories to the watcher
func (w *Watcher) addWatchDirs(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if !d.IsDir() {
			return nil
		}
		rel := contract.RelativeSlashPath(w.root, path)
		if path != dir && (strings.HasPrefix(d.Name(), ".") || scan.IsIgnored(rel+"/", w.opts, w.gitignore)) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
