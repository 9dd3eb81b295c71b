// Package scan collects project files and probes the project layout.
package scan

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// File is a collected source file.
type File struct {
	Path    string // Absolute path
	Rel     string // Root-relative, slash-separated path
	Size    int64
	ModTime time.Time
}

// Options controls which files the collector returns.
type Options struct {
	ScanDirs         []string
	Extensions       []string
	Excludes         []string
	RespectGitignore bool
}

// OptionsFromConfig builds collector options from the validated config.
func OptionsFromConfig(cfg *contract.Config) Options {
	return Options{
		ScanDirs:         cfg.ScanDirs,
		Extensions:       cfg.Extensions,
		Excludes:         cfg.Excludes,
		RespectGitignore: cfg.RespectGitignore,
	}
}

// LoadGitignore compiles <root>/.gitignore, returning nil when it is absent or invalid.
func LoadGitignore(root string, log *zap.Logger) *ignore.GitIgnore {
	gitignorePath := filepath.Join(root, ".gitignore")

	if _, err := os.Stat(gitignorePath); err == nil {
		gitignore, err := ignore.CompileIgnoreFile(gitignorePath)
		if err == nil {
			return gitignore
		}
		log.Warn("Cannot parse .gitignore", zap.String("path", gitignorePath), zap.Error(err))
	}

	return nil
}

// Collect walks every scan directory under root and returns matching files.
// Directories are walked concurrently and merged in scan-directory order, so
// the output order is deterministic. A missing root or scan directory yields
// no files. Only context cancellation is returned as an error.
func Collect(ctx context.Context, root string, opts Options, log *zap.Logger) ([]File, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Cannot read project root", zap.String("root", root), zap.Error(err))
		}
		return nil, nil
	}

	var gitignore *ignore.GitIgnore
	if opts.RespectGitignore {
		gitignore = LoadGitignore(root, log)
	}

	results := make([][]File, len(opts.ScanDirs))
	g, gctx := errgroup.WithContext(ctx)
	for i, dir := range opts.ScanDirs {
		g.Go(func() error {
			files, err := walkScanDir(gctx, root, dir, opts, gitignore, log)
			results[i] = files
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Overlapping scan directories must not count a file twice
	seen := make(map[string]struct{})
	var out []File
	for _, files := range results {
		for _, f := range files {
			if _, dup := seen[f.Rel]; dup {
				continue
			}
			seen[f.Rel] = struct{}{}
			out = append(out, f)
		}
	}
	return out, nil
}

// walkScanDir walks one scan directory in lexical order.
func walkScanDir(ctx context.Context, root, dir string, opts Options, gitignore *ignore.GitIgnore, log *zap.Logger) ([]File, error) {
	base := filepath.Join(root, filepath.FromSlash(dir))
	info, err := os.Stat(base)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Cannot read scan directory", zap.String("dir", base), zap.Error(err))
		}
		return nil, nil
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []File
	walkErr := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			log.Warn("Skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel := contract.RelativeSlashPath(root, path)
		if d.IsDir() {
			if path == base {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || IsIgnored(rel+"/", opts, gitignore) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !HasExtension(d.Name(), opts.Extensions) || IsIgnored(rel, opts, gitignore) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			log.Warn("Skipping unreadable file", zap.String("path", path), zap.Error(err))
			return nil
		}
		files = append(files, File{Path: path, Rel: rel, Size: fi.Size(), ModTime: fi.ModTime()})
		return nil
	})
	if walkErr != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return files, nil
}

// IsIgnored reports whether rel is excluded by the user excludes or the gitignore.
func IsIgnored(rel string, opts Options, gitignore *ignore.GitIgnore) bool {
	if contract.ShouldIgnore(rel, opts.Excludes) {
		return true
	}
	return gitignore != nil && (gitignore.MatchesPath(rel) || gitignore.MatchesPath(strings.TrimSuffix(rel, "/")))
}

// HasExtension reports whether name ends with an allowed extension.
func HasExtension(name string, extensions []string) bool {
	return slices.ContainsFunc(extensions, func(ext string) bool {
		return strings.HasSuffix(name, ext)
	})
}

// Probe returns the tri-state presence of a directory or file.
func Probe(path string) schema.ProbeState {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return schema.Absent
		}
		return schema.Unreadable
	}
	if info.IsDir() {
		f, err := os.Open(path)
		if err != nil {
			return schema.Unreadable
		}
		defer func() { _ = f.Close() }()
		if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
			return schema.Unreadable
		}
	}
	return schema.Present
}

// CountEntries returns the number of immediate entries of dir with its probe state.
func CountEntries(dir string) (int, schema.ProbeState) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, schema.Absent
		}
		return 0, schema.Unreadable
	}
	return len(entries), schema.Present
}

// Entry is an immediate child of a probed directory.
type Entry struct {
	Dir     string // Scan directory the entry belongs to
	Rel     string // Root-relative, slash-separated path
	ModTime time.Time
}

// ModifiedSince returns immediate entries of dirs modified after since.
// Missing or unreadable directories contribute nothing.
func ModifiedSince(root string, dirs []string, since time.Time) []Entry {
	var out []Entry
	for _, dir := range dirs {
		base := filepath.Join(root, filepath.FromSlash(dir))
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, e := range entries {
			info, err := e.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(since) {
				out = append(out, Entry{Dir: dir, Rel: dir + "/" + e.Name(), ModTime: info.ModTime()})
			}
		}
	}
	return out
}
