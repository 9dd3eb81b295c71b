package outwriter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// WriteFileAtomic writes data to a temp file next to path and renames it
// over path, creating parent directories. A failed write leaves the previous
// file untouched.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("cannot replace %s: %w", path, err)
	}
	return nil
}

// WriteJSONFile atomically writes v as 2-space indented JSON.
func WriteJSONFile(path string, v any) error {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return err
	}
	return WriteFileAtomic(path, buf.Bytes())
}

// ReadJSONFile decodes the JSON document at path into v.
func ReadJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return nil
}

// AppendBoundedLog appends entry to the JSON array stored at path and keeps
// only the newest limit entries. A missing or corrupt file starts a new log.
func AppendBoundedLog[T any](path string, entry T, limit int, log *zap.Logger) error {
	var entries []T
	if err := ReadJSONFile(path, &entries); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Resetting unreadable log", zap.String("path", path), zap.Error(err))
		}
		entries = nil
	}

	entries = append(entries, entry)
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return WriteJSONFile(path, entries)
}
