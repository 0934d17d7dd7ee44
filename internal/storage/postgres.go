package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"geotime/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	id          TEXT PRIMARY KEY,
	longitude   DOUBLE PRECISION NOT NULL,
	latitude    DOUBLE PRECISION NOT NULL,
	observed_at TIMESTAMP NOT NULL,
	stored_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps decoded observations in Postgres. observed_at is a
// TIMESTAMP without time zone, matching the naive date-times it holds.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("openPostgres: parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("openPostgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("openPostgres: verify postgres connection: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Close() { p.pool.Close() }

func (p *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("initSchema: %w", err)
	}
	return nil
}

// SaveObservation inserts obs. Saving the same id twice keeps the first row.
func (p *PostgresStore) SaveObservation(ctx context.Context, obs models.Observation) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO observations (id, longitude, latitude, observed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		obs.ID, obs.Longitude, obs.Latitude, obs.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("saveObservation %s: %w", obs.ID, err)
	}
	return nil
}

func (p *PostgresStore) GetObservation(ctx context.Context, id string) (*models.Observation, error) {
	var obs models.Observation
	err := p.pool.QueryRow(ctx,
		`SELECT id, longitude, latitude, observed_at FROM observations WHERE id = $1`, id,
	).Scan(&obs.ID, &obs.Longitude, &obs.Latitude, &obs.ObservedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getObservation %s: %w", id, err)
	}
	return &obs, nil
}
