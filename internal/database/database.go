package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/tshalif/estimationtoolsplugin/internal/config"
)

var ErrSchemaIncomplete = errors.New("trac schema incomplete")

// TracTables are the host tables read by the macros.
var TracTables = []string{"ticket", "ticket_custom", "ticket_change", "milestone"}

// Open opens a pool on the host's ticket database.
func Open(cfg config.Database) (*pgxpool.Pool, error) {
	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Macro expansion borrows a connection per request; a small pool is enough.
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// CheckSchema fails with ErrSchemaIncomplete naming every Trac table missing from the search path.
func CheckSchema(ctx context.Context, pool *pgxpool.Pool) error {
	var missing []string
	for _, table := range TracTables {
		var found *string
		if err := pool.QueryRow(ctx, "SELECT to_regclass($1::text)::text", table).Scan(&found); err != nil {
			return fmt.Errorf("failed to look up table %s: %w", table, err)
		}
		if found == nil {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrSchemaIncomplete, strings.Join(missing, ", "))
	}
	log.Debugf("trac tables present: %s", strings.Join(TracTables, ", "))
	return nil
}

// Migrate creates the ticket tables the service reads. Production databases are owned by the
// host; this is for development and tests.
func Migrate(cfg config.Database) error {
	dir, err := migrationsDir()
	if err != nil {
		return fmt.Errorf("failed to locate migrations directory: %w", err)
	}

	m, err := migrate.New("file://"+dir, migrationURL(cfg))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	version, dirty, _ := m.Version()
	log.Infof("trac tables at migration %d (dirty=%t)", version, dirty)
	return nil
}

// connString is the keyword/value form pgx expects; the schema becomes the search path so the
// repository can use bare Trac table names.
func connString(cfg config.Database) string {
	pass := strings.ReplaceAll(cfg.Pass, "'", "\\'")
	return fmt.Sprintf("host=%s port=%d user=%s password='%s' dbname=%s sslmode=disable options='-c search_path=%s'",
		cfg.Host, cfg.Port, cfg.User, pass, cfg.Name, cfg.Schema)
}

func migrationURL(cfg config.Database) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Pass),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	q.Set("sslmode", "disable")
	q.Set("search_path", cfg.Schema)
	u.RawQuery = q.Encode()
	return u.String()
}

// migrationsDir walks up from the working directory, so tests running inside a package
// directory find the repository's migrations.
func migrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Abs(candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("migrations directory not found")
		}
		dir = parent
	}
}
