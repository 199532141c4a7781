// Package pgstore is the pgx-backed store.Store implementation. It is
// intentionally partial per spec.md §1 ("the relational store
// implementation" is out of scope in depth): accounts, realms, and the
// loot economy are fully relational because spec.md §4.5 requires
// race-free concurrent access to them, but blueprint authoring content
// (room/object/script bodies) is kept as a single jsonb column per room
// rather than fully normalized — grounded on the Files/ArgsTemplate
// free-form columns in whale-net-everything's gameconfig repository,
// generalized from string columns to a jsonb blob since a room's shape
// (objects, hints, nested scripts) is more nested than a config row.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/store"
)

// db is satisfied by both *pgxpool.Pool and pgx.Tx, so Store's methods
// work identically whether called directly or inside Tx.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements store.Store against a PostgreSQL database via pgx.
type Store struct {
	pool *pgxpool.Pool
	db   db
}

var _ store.Store = (*Store)(nil)

// Open connects a pgxpool.Pool to connString and pings it once.
func Open(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	return &Store{pool: pool, db: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() { s.pool.Close() }

// Tx runs fn within a single PostgreSQL transaction. Calls to Tx on the
// Store handed to fn detect they are already inside a transaction and run
// fn directly, matching store.Store's "no nested transactions" contract.
func (s *Store) Tx(ctx context.Context, fn func(ctx context.Context, st store.Store) error) error {
	if _, alreadyTx := s.db.(pgx.Tx); alreadyTx {
		return fn(ctx, s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Store{pool: s.pool, db: tx})
	})
}

// mapErr translates pgx/pgconn errors to the domain store-tier sentinels
// of spec.md §7 tier 1.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %v", domain.ErrUniqueViolation, err)
		case "23503":
			return fmt.Errorf("%w: %v", domain.ErrForeignKey, err)
		case "40001", "40P01":
			return fmt.Errorf("%w: %v", domain.ErrSerialization, err)
		}
	}
	return err
}

// Schema is the DDL pgstore expects. It is not executed automatically;
// cmd/port4k-server's operator is expected to apply it with an external
// migration tool, in keeping with spec.md §1's "relational store
// implementation" non-goal.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id uuid PRIMARY KEY,
	username text UNIQUE NOT NULL,
	password text NOT NULL,
	role int NOT NULL,
	created_at timestamptz NOT NULL,
	last_login timestamptz NOT NULL,
	locked_out bool NOT NULL DEFAULT false,
	show_motd bool NOT NULL DEFAULT true,
	has_current bool NOT NULL DEFAULT false,
	current_realm_id uuid,
	current_room_key text,
	has_spawn bool NOT NULL DEFAULT false,
	spawn_realm_id uuid,
	spawn_room_key text,
	health int NOT NULL DEFAULT 0,
	xp int NOT NULL DEFAULT 0,
	coins int NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS blueprints (
	id uuid PRIMARY KEY,
	key text UNIQUE NOT NULL,
	title text NOT NULL,
	owner_id uuid NOT NULL,
	status int NOT NULL,
	has_entry bool NOT NULL DEFAULT false,
	entry_room_key text
);

CREATE TABLE IF NOT EXISTS blueprint_rooms (
	blueprint_id uuid NOT NULL REFERENCES blueprints(id),
	key text NOT NULL,
	data jsonb NOT NULL,
	PRIMARY KEY (blueprint_id, key)
);

CREATE TABLE IF NOT EXISTS blueprint_exits (
	blueprint_id uuid NOT NULL REFERENCES blueprints(id),
	from_room_key text NOT NULL,
	direction text NOT NULL,
	to_room_key text NOT NULL,
	description text NOT NULL DEFAULT '',
	locked bool NOT NULL DEFAULT false,
	visible_when_locked bool NOT NULL DEFAULT false,
	PRIMARY KEY (blueprint_id, from_room_key, direction)
);

CREATE TABLE IF NOT EXISTS blueprint_scripts (
	blueprint_id uuid NOT NULL REFERENCES blueprints(id),
	room_key text NOT NULL,
	event text NOT NULL,
	draft_source text NOT NULL DEFAULT '',
	published_source text NOT NULL DEFAULT '',
	PRIMARY KEY (blueprint_id, room_key, event)
);

CREATE TABLE IF NOT EXISTS realms (
	id uuid PRIMARY KEY,
	key text UNIQUE NOT NULL,
	title text NOT NULL,
	owner_id uuid NOT NULL,
	kind int NOT NULL,
	blueprint_id uuid NOT NULL REFERENCES blueprints(id)
);

CREATE TABLE IF NOT EXISTS loot_piles (
	id bigserial PRIMARY KEY,
	realm_id uuid NOT NULL,
	room_key text NOT NULL,
	item text NOT NULL,
	qty int NOT NULL,
	picked_by uuid,
	picked bool NOT NULL DEFAULT false,
	picked_at timestamptz
);
CREATE INDEX IF NOT EXISTS loot_piles_room_idx ON loot_piles (realm_id, room_key, item) WHERE NOT picked;

CREATE TABLE IF NOT EXISTS loot_spawns (
	id bigserial PRIMARY KEY,
	realm_id uuid NOT NULL,
	room_key text NOT NULL,
	item text NOT NULL,
	qty_min int NOT NULL,
	qty_max int NOT NULL,
	interval_seconds int NOT NULL,
	max_instances int NOT NULL,
	next_spawn_at timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS loot_spawns_due_idx ON loot_spawns (next_spawn_at);
`
