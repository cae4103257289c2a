package fileio

import (
	"fmt"
	"os"
	"strings"
)

// MarkerStore persists the single-value idempotency fingerprint between
// runs, one line in a state file next to the generated pipeline.
type MarkerStore struct {
	path string
}

// NewMarkerStore returns a store backed by the given file path.
func NewMarkerStore(path string) *MarkerStore {
	return &MarkerStore{path: path}
}

// Load returns the stored fingerprint, or "" when none has been saved yet.
func (s *MarkerStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fileio: read marker %s: %w", s.path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save stores the fingerprint atomically.
func (s *MarkerStore) Save(fingerprint string) error {
	return AtomicWrite(s.path, []byte(fingerprint+"\n"))
}
