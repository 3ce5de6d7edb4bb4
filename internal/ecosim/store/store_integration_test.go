package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/ecosystem"
	"landcycle/internal/ecosim/grid"
	"landcycle/internal/ecosim/store"
)

// TestPostgresRepository_SaveAndLoadCheckpoint exercises the checkpoint
// store against a real Postgres instance: lib/pq's database/sql driver
// confirms the container is reachable and the schema applies cleanly
// before the pgxpool-backed repository under test takes over.
func TestPostgresRepository_SaveAndLoadCheckpoint(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "ecosim",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Skipping integration test: docker unavailable: %v", err)
		return
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/ecosim?sslmode=disable", host, port.Port())

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, sqlDB.Ping())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	_, err = pool.Exec(ctx, store.Schema)
	require.NoError(t, err)

	repo := store.NewPostgresRepository(pool)
	cfg := config.Default()
	eco := ecosystem.NewTest(cfg, 4)
	eco.Year = 3
	eco.Grid.At(grid.NewCellIndex(0, 0)).AddHumus(0.25)

	id, err := repo.SaveCheckpoint(ctx, "integration-scenario", eco)
	require.NoError(t, err)

	restored, year, err := repo.LoadCheckpoint(ctx, id, cfg)
	require.NoError(t, err)
	require.Equal(t, 3, year)
	require.Equal(t, eco.Grid.SideLength, restored.Grid.SideLength)

	latest, latestYear, err := repo.LoadLatestCheckpoint(ctx, "integration-scenario", cfg)
	require.NoError(t, err)
	require.Equal(t, 3, latestYear)
	require.Equal(t, eco.Grid.SideLength, latest.Grid.SideLength)
}
