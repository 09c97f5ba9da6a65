package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/errors"
	"github.com/samber/oops"
)

// FileStorage implements Repository with one pretty-printed JSON file per mode
type FileStorage struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStorage creates a snapshot repository rooted at basePath
func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, oops.In("snapshot").With("base_path", basePath, "context", "failed to create data directory").Wrap(err)
	}

	return &FileStorage{basePath: basePath}, nil
}

// Path returns the snapshot file for mode
func (s *FileStorage) Path(mode domain.Mode) string {
	return filepath.Join(s.basePath, mode.String()+".json")
}

func (s *FileStorage) Read(mode domain.Mode) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.Path(mode)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oops.In("snapshot").With("mode", mode, "path", path).Wrap(errors.ErrSnapshotNotFound)
		}
		return nil, oops.In("snapshot").With("mode", mode, "path", path, "context", "failed to read snapshot").Wrap(err)
	}

	var items []domain.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, oops.In("snapshot").With("mode", mode, "path", path, "context", "failed to unmarshal snapshot").Wrap(err)
	}
	if items == nil {
		items = []domain.Item{}
	}

	return items, nil
}

func (s *FileStorage) Write(mode domain.Mode, items []domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if items == nil {
		items = []domain.Item{}
	}

	path := s.Path(mode)
	data, err := json.MarshalIndent(items, "", "    ")
	if err != nil {
		return oops.In("snapshot").With("mode", mode, "context", "failed to marshal snapshot").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return oops.In("snapshot").With("mode", mode, "path", path, "context", "failed to write snapshot").Wrap(err)
	}
	return nil
}

func (s *FileStorage) Updated(mode domain.Mode) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.Path(mode)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, oops.In("snapshot").With("mode", mode, "path", path).Wrap(errors.ErrSnapshotNotFound)
		}
		return time.Time{}, oops.In("snapshot").With("mode", mode, "path", path).Wrap(err)
	}

	return info.ModTime(), nil
}
