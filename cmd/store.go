package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/advisor-cli/internal/resilience"
	"github.com/sells-group/advisor-cli/internal/scorer"
	"github.com/sells-group/advisor-cli/internal/store"
)

// initStore opens the configured store and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = resilience.DoVal(ctx, connectRetry(), func(ctx context.Context) (store.Store, error) {
			return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			})
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// connectRetry covers a database container that is still starting.
func connectRetry() resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig()
	rc.MaxAttempts = cfg.Store.ConnectAttempts
	rc.InitialBackoff = time.Duration(cfg.Store.ConnectBackoffMs) * time.Millisecond
	rc.OnRetry = resilience.RetryLogger("postgres connect")
	return rc
}

// newService builds the scoring service from config.
func newService(st store.Store) *scorer.Service {
	return scorer.NewService(st, scorer.ServiceConfig{
		Concurrency:        cfg.Batch.MaxConcurrentClients,
		NeverContactedDays: cfg.Tasks.NeverContactedDays,
		DefaultLimit:       cfg.Tasks.DefaultLimit,
	})
}
