package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tazhate/eventbot/internal/domain"
)

// FileStore keeps the catalog in a single JSON file.
type FileStore struct {
	path string
	log  zerolog.Logger
}

func NewFileStore(path string, log zerolog.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

func (s *FileStore) Load() (*domain.Catalog, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &domain.Catalog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var cat domain.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		// Unreadable catalog degrades to an empty one: availability over
		// data. The broken file is overwritten on the next save.
		s.log.Error().Err(err).Str("path", s.path).Msg("Catalog file corrupt, starting empty")
		return &domain.Catalog{}, nil
	}
	return &cat, nil
}

func (s *FileStore) Save(cat *domain.Catalog) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create catalog dir: %w", err)
	}

	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace catalog: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
