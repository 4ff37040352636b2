// Package inventory persists captured bottle records in Postgres.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"bottletrack/internal/logger"
	"bottletrack/pkg/models"
)

// ErrNotFound is returned when a bottle lookup matches no row.
var ErrNotFound = errors.New("bottle not found")

// Store is the persistence interface for bottle records.
type Store interface {
	// ListBottles returns all bottles belonging to ownerID, oldest first.
	// An empty ownerID lists every owner's bottles.
	ListBottles(ctx context.Context, ownerID string) ([]models.Bottle, error)

	// InsertBottle stores a new bottle and returns it with ID and CreatedAt
	// filled in.
	InsertBottle(ctx context.Context, b models.Bottle) (models.Bottle, error)
}

// Schema creates the bottles table. Safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS bottles (
	id              UUID PRIMARY KEY,
	owner_id        TEXT NOT NULL,
	name            TEXT NOT NULL,
	brand           TEXT NOT NULL DEFAULT '',
	strength        TEXT NOT NULL DEFAULT '',
	bottle_size     TEXT NOT NULL DEFAULT '',
	batch_number    TEXT NOT NULL DEFAULT '',
	expiration_date TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_bottles_owner ON bottles (owner_id, created_at);
`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewPostgresStore connects to databaseURL and verifies the connection.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	const op = "NewPostgresStore"

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse database URL: %w", op, err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create connection pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresStore{
		pool: pool,
		log:  logger.WithComponent("inventory"),
	}, nil
}

// NewPostgresStoreWithPool wraps an existing pool (for testing).
func NewPostgresStoreWithPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool: pool,
		log:  logger.WithComponent("inventory"),
	}
}

// EnsureSchema creates the bottles table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const op = "EnsureSchema"

	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("%s: failed to apply schema: %w", op, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// ListBottles returns all bottles belonging to ownerID, oldest first. An
// empty ownerID lists every owner's bottles.
func (s *PostgresStore) ListBottles(ctx context.Context, ownerID string) ([]models.Bottle, error) {
	const op = "ListBottles"

	query, args := listBottlesQuery(ownerID)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query failed: %w", op, err)
	}
	defer rows.Close()

	var bottles []models.Bottle
	for rows.Next() {
		var b models.Bottle
		err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Brand, &b.Strength,
			&b.BottleSize, &b.BatchNumber, &b.ExpirationDate, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: scan failed: %w", op, err)
		}
		bottles = append(bottles, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: row iteration failed: %w", op, err)
	}

	s.log.Debug().
		Str("owner_id", ownerID).
		Int("count", len(bottles)).
		Msg("Listed bottles")

	return bottles, nil
}

// listBottlesQuery builds the list query. The owner filter is only applied
// when an owner is given; an empty owner scopes to the whole inventory.
func listBottlesQuery(ownerID string) (string, []interface{}) {
	const base = `
		SELECT id, owner_id, name, brand, strength, bottle_size, batch_number, expiration_date, created_at
		FROM bottles`
	if ownerID == "" {
		return base + `
		ORDER BY created_at`, nil
	}
	return base + `
		WHERE owner_id = $1
		ORDER BY created_at`, []interface{}{ownerID}
}

// GetBottle returns a single bottle by ID.
func (s *PostgresStore) GetBottle(ctx context.Context, id string) (models.Bottle, error) {
	const op = "GetBottle"

	var b models.Bottle
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, brand, strength, bottle_size, batch_number, expiration_date, created_at
		FROM bottles
		WHERE id = $1`, id).
		Scan(&b.ID, &b.OwnerID, &b.Name, &b.Brand, &b.Strength,
			&b.BottleSize, &b.BatchNumber, &b.ExpirationDate, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Bottle{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return models.Bottle{}, fmt.Errorf("%s: query failed: %w", op, err)
	}
	return b, nil
}

// InsertBottle stores a new bottle. A missing ID is generated and CreatedAt
// is set server-side.
func (s *PostgresStore) InsertBottle(ctx context.Context, b models.Bottle) (models.Bottle, error) {
	const op = "InsertBottle"

	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO bottles (id, owner_id, name, brand, strength, bottle_size, batch_number, expiration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		b.ID, b.OwnerID, b.Name, b.Brand, b.Strength, b.BottleSize, b.BatchNumber, b.ExpirationDate).
		Scan(&b.CreatedAt)
	if err != nil {
		return models.Bottle{}, fmt.Errorf("%s: insert failed: %w", op, err)
	}

	s.log.Info().
		Str("bottle_id", b.ID).
		Str("owner_id", b.OwnerID).
		Str("name", b.Name).
		Msg("Inserted bottle")

	return b, nil
}
