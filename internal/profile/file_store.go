package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"finsage/internal/logging"
)

// FileStore persists one JSON file per user under baseDir.
type FileStore struct {
	baseDir string
	logger  logging.Logger
	mu      sync.Mutex
}

// NewFileStore creates the base directory if needed and returns the store.
func NewFileStore(baseDir string) *FileStore {
	if strings.HasPrefix(baseDir, "~/") {
		home, _ := os.UserHomeDir()
		baseDir = filepath.Join(home, baseDir[2:])
	}
	_ = os.MkdirAll(baseDir, 0755) // Ignore error - directory may already exist
	return &FileStore{
		baseDir: baseDir,
		logger:  logging.NewComponentLogger("ProfileFileStore"),
	}
}

func (s *FileStore) Get(_ context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read profile %s: %w", userID, err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Error("Failed to decode profile file for %s: %v", userID, err)
		return nil, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	return &p, nil
}

func (s *FileStore) Put(_ context.Context, userID string, p *Profile) error {
	if userID == "" {
		return fmt.Errorf("missing user id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", userID, err)
	}

	// Write to a temp file then rename so readers never observe a torn file.
	path := s.path(userID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write profile %s: %w", userID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit profile %s: %w", userID, err)
	}
	return nil
}

func (s *FileStore) path(userID string) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("profile_%s.json", userID))
}
