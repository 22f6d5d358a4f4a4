// Package db is the relational store for profiles, prayer records, qada
// counters and achievements. It speaks Postgres in production and SQLite for
// single-device use and tests; queries are written with ? placeholders and
// rebound for the active driver.
package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLitePrefix selects the embedded SQLite driver, e.g. sqlite:///var/lib/namaz.db
// or sqlite://:memory:.
const SQLitePrefix = "sqlite://"

//go:embed migrations/*.up.sql
var migrations embed.FS

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// ConnectOptions tunes the Postgres connect loop.
type ConnectOptions struct {
	MaxRetries    int
	RetryInterval time.Duration
}

var defaultConnect = ConnectOptions{MaxRetries: 10, RetryInterval: 2 * time.Second}

// Open connects to dsn. Postgres connections are retried while the server
// comes up.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWith(ctx, dsn, defaultConnect)
}

func OpenWith(ctx context.Context, dsn string, opts ConnectOptions) (*sqlx.DB, error) {
	if path, ok := strings.CutPrefix(dsn, SQLitePrefix); ok {
		return openSQLite(ctx, path)
	}

	var (
		conn *sqlx.DB
		err  error
	)
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		conn, err = sqlx.ConnectContext(ctx, "postgres", dsn)
		if err == nil {
			log.Info().Msg("connected to database")
			return conn, nil
		}

		log.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", opts.RetryInterval)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryInterval):
		}
	}
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", opts.MaxRetries, err)
}

func openSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	var dsn string
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	}

	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection: SQLite serialises writers, and an in-memory database
	// only lives as long as its connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return conn, nil
}

// Migrate executes every embedded *.up.sql file in name order. Each
// migration is idempotent, so it is safe to run on every start.
func Migrate(ctx context.Context, conn *sqlx.DB) error {
	files, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("failed to glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		raw, err := migrations.ReadFile(file)
		if err != nil {
			return fmt.Errorf("could not read migration %q: %w", file, err)
		}
		for _, stmt := range splitStatements(string(raw)) {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("error executing migration %q: %w", file, err)
			}
		}
		log.Debug().Str("file", file).Msg("migration applied")
	}
	return nil
}

// splitStatements breaks a migration file on semicolons. Migrations must not
// contain semicolons inside literals.
func splitStatements(sql string) []string {
	var out []string
	for _, part := range strings.Split(sql, ";") {
		lines := make([]string, 0)
		for _, line := range strings.Split(part, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
