package database

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/glebarez/go-sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type Config struct {
	Driver          string        `envconfig:"DB_DRIVER" default:"sqlite"`
	DSN             string        `envconfig:"DB_DSN" default:"bookstore.db"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"4"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
}

// Dialect is the goose dialect and the migrations sub-directory.
func (c Config) Dialect() (string, error) {
	switch c.Driver {
	case DriverSQLite:
		return "sqlite3", nil
	case DriverPostgres:
		return "postgres", nil
	}
	return "", fmt.Errorf("unsupported db driver %q", c.Driver)
}

func (c Config) migrationsDir() string {
	if c.Driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}

func (c Config) inMemory() bool {
	return c.Driver == DriverSQLite && strings.Contains(c.DSN, ":memory:")
}

// Open connects and pings, it does not migrate.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	if _, err := cfg.Dialect(); err != nil {
		return nil, err
	}
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "sqlx.Open")
	}
	maxOpen := cfg.MaxOpenConns
	if cfg.inMemory() {
		// every sqlite connection gets its own in-memory database
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "db.Ping")
	}
	if cfg.Driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "sqlite pragma")
		}
	}
	return db, nil
}

// NewDB opens the database and applies every pending migration from
// migrations/<dialect>.
func NewDB(ctx context.Context, cfg Config, migrations fs.FS, log *zap.Logger) (*sqlx.DB, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, cfg, migrations, "up", log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(ctx context.Context, db *sqlx.DB, cfg Config, migrations fs.FS, command string, log *zap.Logger) error {
	dialect, err := cfg.Dialect()
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{log.Named("goose").Sugar()})
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "goose.SetDialect")
	}

	dir := cfg.migrationsDir()
	switch command {
	case "up":
		err = goose.UpContext(ctx, db.DB, dir)
	case "down":
		err = goose.DownContext(ctx, db.DB, dir)
	case "status":
		err = goose.StatusContext(ctx, db.DB, dir)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
	return errors.Wrapf(err, "goose %s", command)
}

// Placeholder picks the squirrel bind style for the driver.
func Placeholder(driver string) sq.PlaceholderFormat {
	if driver == DriverPostgres {
		return sq.Dollar
	}
	return sq.Question
}

type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatalf(format, v...)
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Infof(strings.TrimSuffix(format, "\n"), v...)
}
