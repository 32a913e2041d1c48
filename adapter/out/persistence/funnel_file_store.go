package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"funnel_server/core/domain"
	"funnel_server/core/port/out"
)

// FilePreferenceStore keeps the preference document in one JSON file.
// Concurrent writers are last-write-wins.
type FilePreferenceStore struct {
	path     string
	defaults DefaultsFunc
	now      func() time.Time
	mu       sync.Mutex
}

var _ out.PreferenceStore = (*FilePreferenceStore)(nil)

func NewFilePreferenceStore(path string, defaults DefaultsFunc) *FilePreferenceStore {
	return &FilePreferenceStore{
		path:     path,
		defaults: defaults,
		now:      time.Now,
	}
}

func (s *FilePreferenceStore) Backend() string {
	return "file"
}

// Load returns the stored document, or the defaults when the file is absent.
func (s *FilePreferenceStore) Load(_ context.Context) (*domain.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.defaults(), nil
	}
	if err != nil {
		return s.defaults(), &domain.DegradedError{Backend: s.Backend(), Err: err}
	}
	return decodePreferences(data, s.Backend(), s.defaults)
}

// Save stamps UpdatedAt and replaces the file atomically, creating the
// directory when needed.
func (s *FilePreferenceStore) Save(_ context.Context, prefs *domain.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs.UpdatedAt = s.now().UTC()
	data, err := encodePreferences(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}
