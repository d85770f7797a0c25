package jobs

import (
	"context"
	"fmt"

	"mediafetch/internal/config"
)

// Open constructs the store selected by cfg.Jobs.Store.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg == nil {
		return NewMemoryStore(), nil
	}
	switch cfg.Jobs.Store {
	case "", config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreSQLite:
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("ensure directories: %w", err)
		}
		return OpenSQLite(ctx, cfg.Jobs.Database)
	default:
		return nil, fmt.Errorf("unsupported job store %q", cfg.Jobs.Store)
	}
}
