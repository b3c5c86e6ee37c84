package storage

import "github.com/tazhate/eventbot/internal/domain"

// Store is the narrow persistence contract: whole-catalog load and save.
// Load must return an empty catalog, not an error, when the backing store
// does not exist yet.
type Store interface {
	Load() (*domain.Catalog, error)
	Save(*domain.Catalog) error
	Close() error
}
