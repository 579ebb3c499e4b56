package commands

import (
	"database/sql"
	"fmt"
	"scrapesync-backend/internal/components/chrono"
	"scrapesync-backend/internal/components/telemetry"
	"scrapesync-backend/internal/fetcher"
	"scrapesync-backend/internal/reconcile"
	"scrapesync-backend/internal/store"
	"scrapesync-backend/lib/restyutil"
	"scrapesync-backend/pkg/migrations"
	"time"
)

// app holds what every command needs: an open and migrated database and
// the store on top of it.
type app struct {
	db    *sql.DB
	store *store.Store
	tel   telemetry.API
	clock chrono.API
}

func openApp(cfg Config) (*app, error) {
	tel := telemetry.SlogAPI{}
	database, _, err := migrations.OpenAndMigrateDB(cfg.Database.Url, tel)
	if err != nil {
		return nil, err
	}
	return &app{
		db:    database,
		store: store.New(database),
		tel:   tel,
		clock: chrono.NewStandardImpl(time.UTC),
	}, nil
}

func (a *app) newSyncer(cfg Config) (*reconcile.Syncer, error) {
	opts := cfg.fetcherOptions()
	if httpDump != "" {
		output, err := restyutil.NewFilesystemOutput(httpDump)
		if err != nil {
			return nil, err
		}
		opts.DumpOutput = output
	}

	f, err := fetcher.New(opts, a.tel)
	if err != nil {
		return nil, err
	}
	return reconcile.NewSyncer(a.store, f, a.clock, a.tel), nil
}

func (a *app) Close() error {
	err := a.db.Close()
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
