package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/mhutchins/pointflow/internal/config"
	"github.com/mhutchins/pointflow/internal/engine"
	"github.com/mhutchins/pointflow/internal/service"
	"github.com/mhutchins/pointflow/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/pointflow/pointflow.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initEngine wires the reward engine against the storage service.
func initEngine(store service.Storage) *engine.RewardEngine {
	return engine.New(store, store, store, store)
}
