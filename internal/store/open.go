package store

import (
	"context"
	"fmt"

	"github.com/dvloznov/fraud-pipeline/internal/config"
)

// Open creates the store selected by the configuration.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreEngine {
	case config.EngineSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.EngineBigQuery:
		return NewBigQueryStore(ctx, cfg.ProjectID, cfg.Dataset)
	default:
		return nil, fmt.Errorf("store: unknown engine %q", cfg.StoreEngine)
	}
}
