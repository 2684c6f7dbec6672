package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fyrsmithlabs/doctord/internal/diagnostic"
)

// fileData is the persisted index structure.
type fileData struct {
	Version int                              `json:"version"`
	Builds  map[string]*diagnostic.ResultSet `json:"builds"` // key: job#number
}

// FileStore persists attachments in a single JSON index file. Writes
// are atomic (tmp + rename); the whole index is loaded at open.
type FileStore struct {
	mu       sync.RWMutex
	filePath string
	data     *fileData
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens (or creates) the store at basePath/results.json.
func NewFileStore(basePath string) (*FileStore, error) {
	if basePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		basePath = filepath.Join(home, ".config", "doctord")
	}

	if err := os.MkdirAll(basePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &FileStore{
		filePath: filepath.Join(basePath, "results.json"),
		data: &fileData{
			Version: 1,
			Builds:  make(map[string]*diagnostic.ResultSet),
		},
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	return s, nil
}

// Attach implements Store.
func (s *FileStore) Attach(_ context.Context, key string, set *diagnostic.ResultSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Builds[key]; ok {
		return ErrAlreadyAttached
	}
	s.data.Builds[key] = set

	if err := s.save(); err != nil {
		delete(s.data.Builds, key)
		return err
	}
	return nil
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key string) (*diagnostic.ResultSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.data.Builds[key]
	if !ok {
		return nil, ErrNotFound
	}
	return set, nil
}

// Keys implements Store.
func (s *FileStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data.Builds))
	for k := range s.data.Builds {
		keys = append(keys, k)
	}
	return keys, nil
}

// load reads the index from disk.
func (s *FileStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if fd.Builds == nil {
		fd.Builds = make(map[string]*diagnostic.ResultSet)
	}

	s.data = &fd
	return nil
}

// save writes the index to disk atomically.
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename store: %w", err)
	}

	return nil
}
