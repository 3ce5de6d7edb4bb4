// Package store persists and restores ecosystem checkpoints in
// PostgreSQL: a Repository interface backed by a pgxpool.Pool
// implementation, with the whole cell grid stored as a single JSONB
// snapshot column rather than one row per cell, since checkpoints are
// read and written as a unit.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/ecosystem"
	"landcycle/internal/ecosim/grid"
)

// isRetryableSaveError reports whether a checkpoint insert failed for a
// transient reason (connection reset, deadlock) rather than a
// constraint violation that would fail again identically on retry.
// Server-reported errors surface from the pool as *pgconn.PgError,
// whose SQLSTATE class separates the two.
func isRetryableSaveError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		// Not a server-classified Postgres error (e.g. a network
		// timeout) - treat as transient.
		return true
	}
	code := pgErr.SQLState()
	if len(code) < 2 {
		return false
	}
	switch code[:2] {
	case "08", "40": // connection exception, transaction rollback
		return true
	default:
		return false
	}
}

// Checkpoint is a saved ecosystem snapshot: enough to exactly
// reconstruct the grid and continue simulating from where it left off.
type Checkpoint struct {
	ID        uuid.UUID
	Scenario  string
	Year      int
	SideLen   int
	Cells     []grid.Cell
	WindDir   float64
	WindStr   float64
	CreatedAt time.Time
}

// Repository persists and loads ecosystem checkpoints.
type Repository interface {
	SaveCheckpoint(ctx context.Context, scenario string, eco *ecosystem.Ecosystem) (uuid.UUID, error)
	LoadLatestCheckpoint(ctx context.Context, scenario string, cfg *config.Config) (*ecosystem.Ecosystem, int, error)
	LoadCheckpoint(ctx context.Context, id uuid.UUID, cfg *config.Config) (*ecosystem.Ecosystem, int, error)
}

// PostgresRepository implements Repository against PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a repository over an existing
// connection pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// cellsPayload is the JSON shape stored in the checkpoints table, kept
// separate from grid.Cell's in-memory layout in case the on-disk schema
// needs to evolve independently of the simulation's runtime type.
type cellsPayload struct {
	SideLength int         `json:"side_length"`
	Cells      []grid.Cell `json:"cells"`
	WindDir    float64     `json:"wind_direction"`
	WindStr    float64     `json:"wind_strength"`
}

func snapshotCells(eco *ecosystem.Ecosystem) cellsPayload {
	g := eco.Grid
	cells := make([]grid.Cell, 0, g.NumCells())
	g.ForEachCell(func(idx grid.CellIndex) {
		cells = append(cells, *g.At(idx))
	})
	return cellsPayload{
		SideLength: g.SideLength,
		Cells:      cells,
		WindDir:    eco.Wind.Direction,
		WindStr:    eco.Wind.Strength,
	}
}

// SaveCheckpoint serializes the ecosystem's full cell grid and inserts
// it as a new checkpoint row, returning the new checkpoint's id. A
// single transient failure (connection blip, serialization conflict)
// is retried once before giving up, since a long-running simulation
// would otherwise lose a checkpoint to a passing network hiccup.
func (r *PostgresRepository) SaveCheckpoint(ctx context.Context, scenario string, eco *ecosystem.Ecosystem) (uuid.UUID, error) {
	payload, err := json.Marshal(snapshotCells(eco))
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshaling checkpoint cells: %w", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO ecosystem_checkpoints (id, scenario, year, cells)
		VALUES ($1, $2, $3, $4)
	`
	_, execErr := r.db.Exec(ctx, query, id, scenario, eco.Year, payload)
	if execErr != nil && isRetryableSaveError(execErr) {
		_, execErr = r.db.Exec(ctx, query, id, scenario, eco.Year, payload)
	}
	if execErr != nil {
		return uuid.Nil, fmt.Errorf("inserting checkpoint: %w", execErr)
	}
	return id, nil
}

// LoadLatestCheckpoint loads the most recently saved checkpoint for a
// scenario, or an error if none exists.
func (r *PostgresRepository) LoadLatestCheckpoint(ctx context.Context, scenario string, cfg *config.Config) (*ecosystem.Ecosystem, int, error) {
	query := `
		SELECT year, cells
		FROM ecosystem_checkpoints
		WHERE scenario = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var year int
	var raw []byte
	if err := r.db.QueryRow(ctx, query, scenario).Scan(&year, &raw); err != nil {
		return nil, 0, fmt.Errorf("loading latest checkpoint for %q: %w", scenario, err)
	}
	return rebuild(raw, cfg, year)
}

// LoadCheckpoint loads a specific checkpoint by id.
func (r *PostgresRepository) LoadCheckpoint(ctx context.Context, id uuid.UUID, cfg *config.Config) (*ecosystem.Ecosystem, int, error) {
	query := `SELECT year, cells FROM ecosystem_checkpoints WHERE id = $1`
	var year int
	var raw []byte
	if err := r.db.QueryRow(ctx, query, id).Scan(&year, &raw); err != nil {
		return nil, 0, fmt.Errorf("loading checkpoint %s: %w", id, err)
	}
	return rebuild(raw, cfg, year)
}

func rebuild(raw []byte, cfg *config.Config, year int) (*ecosystem.Ecosystem, int, error) {
	var payload cellsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, 0, fmt.Errorf("unmarshaling checkpoint cells: %w", err)
	}

	eco := ecosystem.NewTest(cfg, payload.SideLength)
	i := 0
	eco.Grid.ForEachCell(func(idx grid.CellIndex) {
		*eco.Grid.At(idx) = payload.Cells[i]
		i++
	})
	eco.Wind.Direction = payload.WindDir
	eco.Wind.Strength = payload.WindStr
	eco.Year = year
	return eco, year, nil
}

// Schema is the DDL for the checkpoints table, applied by the
// control-plane binary at startup.
const Schema = `
CREATE TABLE IF NOT EXISTS ecosystem_checkpoints (
	id UUID PRIMARY KEY,
	scenario TEXT NOT NULL,
	year INTEGER NOT NULL,
	cells JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_ecosystem_checkpoints_scenario ON ecosystem_checkpoints (scenario, created_at DESC);
`
