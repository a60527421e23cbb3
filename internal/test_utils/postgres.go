package test_utils

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/tshalif/estimationtoolsplugin/internal/config"
	"github.com/tshalif/estimationtoolsplugin/internal/database"
)

const (
	postgresImage = "postgres:18.1-alpine"
	snapshotName  = "trac-empty"
)

// tracDatabase mirrors the credentials created by dev/init.sql.
var tracDatabase = config.Database{
	User:   "test_trac",
	Pass:   "test_trac",
	Name:   "trac",
	Schema: "trac",
}

func startTracContainer(ctx context.Context) (*postgres.PostgresContainer, config.Database, error) {
	root, err := moduleRoot()
	if err != nil {
		return nil, config.Database{}, err
	}

	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithInitScripts(filepath.Join(root, "dev", "init.sql")),
		postgres.WithDatabase(tracDatabase.Name),
		postgres.WithUsername(tracDatabase.User),
		postgres.WithPassword(tracDatabase.Pass),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, config.Database{}, err
	}

	cfg := tracDatabase
	if cfg.Host, err = container.Host(ctx); err != nil {
		return container, cfg, err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return container, cfg, err
	}
	cfg.Port = port.Int()
	return container, cfg, nil
}

// TestWithDB starts Postgres with the Trac tables migrated and verified, then snapshots the empty
// database so tests can Restore it. The returned function opens a new pool on it.
func TestWithDB() (*postgres.PostgresContainer, func() *pgxpool.Pool) {
	ctx := context.Background()

	container, cfg, err := startTracContainer(ctx)
	if err != nil {
		log.Fatalf("Failed to start trac database: %v", err)
	}
	log.Infof("Trac database listening on %s:%d", cfg.Host, cfg.Port)

	if err := database.Migrate(cfg); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	pool, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	err = database.CheckSchema(ctx, pool)
	// the snapshot copies the database, which needs it free of connections
	pool.Close()
	if err != nil {
		log.Fatalf("Migrated database is incomplete: %v", err)
	}

	if err := container.Snapshot(ctx, postgres.WithSnapshotName(snapshotName)); err != nil {
		log.Fatalf("Failed to snapshot trac database: %v", err)
	}

	return container, func() *pgxpool.Pool {
		db, err := database.Open(cfg)
		if err != nil {
			log.Fatalf("Failed to open database connection: %v", err)
		}
		return db
	}
}

// moduleRoot is the nearest parent directory holding go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found above working directory")
		}
		dir = parent
	}
}
