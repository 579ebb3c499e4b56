package testutil

import (
	"database/sql"
	"path/filepath"
	"scrapesync-backend/internal/components/telemetry"
	"scrapesync-backend/internal/store"
	"scrapesync-backend/pkg/migrations"
	"testing"
)

type DatabaseParams struct {
	// if unspecified, it will use `:memory:`
	DbPath string
	// if true, DbPath is ignored and a fresh file is created under t.TempDir()
	TempFile bool
}

type DatabaseResult struct {
	DB    *sql.DB
	Store *store.Store
	Tel   *telemetry.Recorder
}

// SetupDatabase opens and migrates a sqlite database for a test, the
// returned cleanup closes it.
func SetupDatabase(t testing.TB, params DatabaseParams) (DatabaseResult, func()) {
	t.Helper()

	dbpath := ":memory:"
	if params.TempFile {
		dbpath = filepath.Join(t.TempDir(), "test.db")
	} else if params.DbPath != "" {
		dbpath = params.DbPath
	}

	tel := &telemetry.Recorder{}
	database, _, err := migrations.OpenAndMigrateDB(dbpath, tel)
	if err != nil {
		t.Fatal(err)
	}

	return DatabaseResult{
			DB:    database,
			Store: store.New(database),
			Tel:   tel,
		}, func() {
			err := database.Close()
			if err != nil {
				t.Fatal(err)
			}
		}
}
