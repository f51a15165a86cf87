package main

import (
	"context"

	"github.com/taxdeedflow/comps-cli/internal/store"
	"github.com/taxdeedflow/comps-cli/internal/valuation"
)

// appEnv holds the service and the optional store behind it.
type appEnv struct {
	Store   store.Store
	Service *valuation.Service
}

// initEnv validates config for mode and builds the service. The store is
// opened only when withStore is set.
func initEnv(ctx context.Context, mode string, withStore, persist bool) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env := &appEnv{}
	if withStore {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}

	opts := []valuation.Option{valuation.WithWriteAttempts(cfg.Store.WriteAttempts)}
	if persist && env.Store != nil {
		opts = append(opts, valuation.WithPersistence())
	}
	env.Service = valuation.NewService(env.Store, cfg.Valuation, opts...)
	return env, nil
}

// Close releases the store, if any.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}
