package main

import (
	"context"
	"fmt"

	"github.com/ledgerkeep/buxsync/internal/buxfer"
	"github.com/ledgerkeep/buxsync/internal/config"
	"github.com/ledgerkeep/buxsync/internal/service"
	"github.com/ledgerkeep/buxsync/internal/storage"
)

// initClient builds an authenticated Buxfer client from configuration.
func initClient(ctx context.Context) (*buxfer.Client, error) {
	cfg, err := config.BuxferConfig()
	if err != nil {
		return nil, err
	}

	client, err := buxfer.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Buxfer client: %w", err)
	}

	if err := client.Login(ctx); err != nil {
		return nil, err
	}

	return client, nil
}

// initJournal opens the local sync journal and runs migrations.
func initJournal(ctx context.Context) (service.Journal, error) {
	dbPath, err := config.DatabasePath()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
