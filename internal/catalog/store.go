package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"document-workflow/internal/common/logger"
)

// Loader produces a fresh catalog.
type Loader interface {
	Load(ctx context.Context) (*Catalog, error)
}

// Store is the injected holder for the current catalog. Readers always see a
// complete snapshot; Refresh swaps it atomically.
type Store struct {
	loader  Loader
	logger  logger.Logger
	current atomic.Pointer[Catalog]
}

func NewStore(loader Loader, log logger.Logger) *Store {
	s := &Store{loader: loader, logger: log}
	s.current.Store(Empty())
	return s
}

// NewStaticStore serves a fixed catalog.
func NewStaticStore(c *Catalog) *Store {
	s := &Store{logger: logger.NewNoOpLogger()}
	s.current.Store(c)
	return s
}

func (s *Store) Get() *Catalog {
	return s.current.Load()
}

// Refresh reloads the catalog. On error the previous snapshot stays in place.
func (s *Store) Refresh(ctx context.Context) error {
	if s.loader == nil {
		return nil
	}
	c, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error("catalog refresh failed", map[string]interface{}{"error": err})
		return err
	}
	s.current.Store(c)
	s.logger.Info("catalog refreshed", map[string]interface{}{
		"documentTypes":  len(c.typeOrder),
		"parameters":     len(c.definitions),
		"referenceLists": len(c.listNames),
	})
	return nil
}

// RunRefresher refreshes every interval until ctx is done.
func (s *Store) RunRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}
