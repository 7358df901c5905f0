package cli

import (
	"fmt"

	"schedcore/internal/config"
	"schedcore/internal/infra/persistence/memory"
	"schedcore/internal/infra/persistence/postgres"
	"schedcore/internal/infra/persistence/sqlite"
	"schedcore/pkg/domain"
)

// openStore builds the configured persistence backend. The returned closer is
// a no-op for the memory driver.
func openStore(cfg config.Config) (domain.Store, func() error, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return memory.NewStore(), func() error { return nil }, nil
	case config.StoreSQLite:
		store, err := sqlite.NewStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, store.Close, nil
	case config.StorePostgres:
		store, err := postgres.NewStore(cfg.Store.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %s", cfg.Store.Driver)
	}
}
