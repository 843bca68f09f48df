package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/reflectic/curation-cli/internal/config"
)

// Open creates a Store for the configured driver and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: database_url is required for postgres driver")
		}
		st, err = NewPostgres(ctx, cfg.DatabaseURL)
	case "", "sqlite":
		st, err = NewSQLite(cfg.Path)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
