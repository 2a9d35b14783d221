package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hanmine/hanmine/internal/cedict"
	"github.com/hanmine/hanmine/internal/collection"
	"github.com/hanmine/hanmine/internal/config"
	"github.com/hanmine/hanmine/internal/database"
	"github.com/hanmine/hanmine/internal/itemstore"
)

func newLoader() (*config.ConfigLoader, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader, nil
}

func loadConfig() (*config.Config, error) {
	loader, err := newLoader()
	if err != nil {
		return nil, err
	}
	return loader.Load()
}

// environment bundles everything a store-backed command needs: the open
// collection handle, the loaded dictionary, and the item store over both.
type environment struct {
	cfg   *config.Config
	db    *sqlx.DB
	col   *collection.DBCollection
	store *itemstore.Store
}

func openEnvironment() (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.CollectionPath == "" {
		return nil, fmt.Errorf("no collection configured. Run 'hanmine config set --collection PATH' first")
	}
	if cfg.Dictionary.SourcePath == "" {
		return nil, fmt.Errorf("no dictionary configured. Run 'hanmine config set --dictionary PATH' first")
	}

	dict, err := cedict.Load(
		cedict.NewCache(cfg.Dictionary.CacheDirectory),
		cfg.Dictionary.SourcePath,
		cfg.Dictionary.TierListDirectory,
	)
	if err != nil {
		return nil, fmt.Errorf("cedict.Load() > %w", err)
	}

	db, err := database.Open(cfg.CollectionPath)
	if err != nil {
		return nil, fmt.Errorf("database.Open() > %w", err)
	}

	col := collection.NewDBCollection(db)
	store, err := itemstore.New(col, dict, cfg.StorePath, cedict.Tier(cfg.CompletedTier))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("itemstore.New() > %w", err)
	}

	return &environment{cfg: cfg, db: db, col: col, store: store}, nil
}

func (e *environment) Close() error {
	return e.db.Close()
}

func printUpdateStats(stats itemstore.UpdateStats) {
	fmt.Printf("%d new card(s), %d changed card(s), %d item(s) recomputed.\n",
		stats.NumNew, stats.NumChanged, stats.NumParents)
}
