package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"scrapesync-backend/internal/components/telemetry"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed sql
var migrationFS embed.FS

type Dialect string

const (
	DIALECT_SQLITE   Dialect = "sqlite"
	DIALECT_LIBSQL   Dialect = "libsql"
	DIALECT_POSTGRES Dialect = "postgres"
)

// DialectOf infers the backend from a database url, anything without a
// recognized scheme is treated as a sqlite file path.
func DialectOf(url string) Dialect {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DIALECT_POSTGRES
	case strings.HasPrefix(url, "libsql://"),
		strings.HasPrefix(url, "wss://"),
		strings.HasPrefix(url, "ws://"),
		strings.HasPrefix(url, "https://"),
		strings.HasPrefix(url, "http://"):
		return DIALECT_LIBSQL
	default:
		return DIALECT_SQLITE
	}
}

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// OpenDB opens the database behind url without migrating it.
func OpenDB(url string) (*sql.DB, Dialect, error) {
	dialect := DialectOf(url)

	switch dialect {
	case DIALECT_POSTGRES:
		db, err := sql.Open("pgx", url)
		if err != nil {
			return nil, dialect, wrapOpenDB(err)
		}
		return db, dialect, nil
	case DIALECT_LIBSQL:
		db, err := sql.Open("libsql", url)
		if err != nil {
			return nil, dialect, wrapOpenDB(err)
		}
		return db, dialect, nil
	}

	path := strings.TrimPrefix(url, "sqlite://")
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, dialect, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, dialect, wrapOpenDB(err)
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	// a single connection also keeps `:memory:` databases alive for the
	// lifetime of the pool.
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, dialect, wrapOpenDB(err)
	}
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	if err != nil {
		db.Close()
		return nil, dialect, wrapOpenDB(err)
	}

	return db, dialect, nil
}

// goose keeps its configuration in globals
var gooseLock sync.Mutex

type gooseLogger struct {
	tel telemetry.API
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.tel.ReportBroken("goose", fmt.Errorf(format, v...))
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.tel.ReportDebug(fmt.Sprintf("goose: "+strings.TrimSuffix(format, "\n"), v...))
}

func wrapMigrate(err error) error {
	return fmt.Errorf("migrate db: %w", err)
}

// Migrate applies every embedded migration of the dialect that has not
// been applied yet.
func Migrate(db *sql.DB, dialect Dialect, tel telemetry.API) error {
	gooseLock.Lock()
	defer gooseLock.Unlock()

	dir := "sql/sqlite"
	gooseDialect := "sqlite3"
	if dialect == DIALECT_POSTGRES {
		dir = "sql/postgres"
		gooseDialect = "postgres"
	}

	goose.SetBaseFS(migrationFS)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(gooseLogger{tel: telemetry.NewScopedAPI("migrations", tel)})

	err := goose.SetDialect(gooseDialect)
	if err != nil {
		return wrapMigrate(err)
	}
	err = goose.Up(db, dir)
	if err != nil {
		return wrapMigrate(err)
	}
	return nil
}

// OpenAndMigrateDB opens the database behind url and brings its schema up
// to date.
func OpenAndMigrateDB(url string, tel telemetry.API) (*sql.DB, Dialect, error) {
	db, dialect, err := OpenDB(url)
	if err != nil {
		return nil, dialect, err
	}
	err = Migrate(db, dialect, tel)
	if err != nil {
		db.Close()
		return nil, dialect, err
	}
	return db, dialect, nil
}
