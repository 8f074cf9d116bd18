package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/sheetnorm/internal/config"
)

// Open connects the backend selected by cfg.Driver. The none driver
// returns a nil Store and no error: runs are then not persisted.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverNone, "":
		return nil, nil
	case config.DriverPostgres:
		pg, err := OpenPostgres(ctx, cfg.URL, PoolConfig{
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.DriverSQLite:
		lite, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return lite, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
