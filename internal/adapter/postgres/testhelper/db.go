package testhelper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/emissioncoresupport/evidence-ledger/internal/adapter/postgres"
	"github.com/emissioncoresupport/evidence-ledger/internal/config"
	"github.com/emissioncoresupport/evidence-ledger/migrations"
)

// externalDSNEnv points the tests at an already running database instead of
// a container. Migrations are still applied to it.
const externalDSNEnv = "LEDGER_TEST_DATABASE_DSN"

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// SetupTestDB returns a pool on a migrated ledger database shared by the whole
// test run. The pool is built the way the service builds it and is closed via
// t.Cleanup. Skipped with -short.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("testhelper: database tests skipped in -short mode")
	}

	once.Do(func() {
		sharedDSN, initErr = prepareDatabase()
	})
	if initErr != nil {
		t.Fatalf("testhelper: failed to setup test DB: %v", initErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, config.DatabaseConfig{
		DSN:             sharedDSN,
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
		ConnectAttempts: 3,
		ConnectDelay:    200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("testhelper: failed to create pool: %v", err)
	}

	t.Cleanup(pool.Close)

	return pool
}

func prepareDatabase() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	dsn := os.Getenv(externalDSNEnv)
	if dsn == "" {
		var err error
		if dsn, err = startContainer(ctx); err != nil {
			return "", err
		}
	}

	if err := migrate(ctx, dsn); err != nil {
		return "", err
	}
	return dsn, nil
}

func startContainer(ctx context.Context) (string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "ledger",
				"POSTGRES_PASSWORD": "ledger",
				"POSTGRES_DB":       "ledger_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://ledger:ledger@%s:%s/ledger_test?sslmode=disable", host, port.Port()), nil
}

// migrate applies the embedded goose migrations; goose needs a *sql.DB.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
