// Package fileio provides atomic whole-file writes and the idempotency
// marker store.
package fileio

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWrite writes content to path via a temp file and rename, so a crash
// mid-write never leaves a partial file behind. Parent directories are
// created as needed.
func AtomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fileio: ensure dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".stagehand-tmp-*")
	if err != nil {
		return fmt.Errorf("fileio: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		// No-ops once the rename has happened.
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("fileio: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fileio: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fileio: close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("fileio: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("fileio: atomic rename: %w", err)
	}
	return nil
}

// ReadIfExists reads path, reporting a missing file as (nil, false, nil).
func ReadIfExists(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fileio: read %s: %w", path, err)
	}
	return data, true, nil
}
