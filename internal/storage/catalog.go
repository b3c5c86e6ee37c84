package storage

import (
	"fmt"
	"sync"

	"github.com/tazhate/eventbot/internal/domain"
)

// Catalog serializes load-modify-save transactions on a Store so that the
// reminder loop and the lifecycle manager cannot interleave saves and drop
// each other's writes. The catalog is small; whole-catalog locking is a
// deliberate trade-off over per-event locks.
type Catalog struct {
	mu    sync.Mutex
	store Store
}

func NewCatalog(store Store) *Catalog {
	return &Catalog{store: store}
}

// Update runs one load-modify-save transaction. The mutation is persisted
// only when fn returns nil.
func (c *Catalog) Update(fn func(*domain.Catalog) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cat, err := c.store.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if err := fn(cat); err != nil {
		return err
	}
	if err := c.store.Save(cat); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

// Snapshot returns the current catalog for read-only scanning.
func (c *Catalog) Snapshot() (*domain.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cat, err := c.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}
