package main

import (
	"context"

	"github.com/reflectic/curation-cli/internal/cleanup"
	"github.com/reflectic/curation-cli/internal/filter"
	"github.com/reflectic/curation-cli/internal/store"
)

// openStore opens the configured store backend with migrations applied.
// Callers own Close.
func openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

// newOrchestrator builds the cleanup orchestrator with the configured rule
// families.
func newOrchestrator(st store.Store) (*cleanup.Orchestrator, error) {
	families, err := filter.LoadFamilies(cfg.Filters.RulesPath)
	if err != nil {
		return nil, err
	}
	engine := filter.NewEngine(families...)
	return cleanup.New(st, engine, cfg.Dedup, cfg.CrossSource), nil
}
