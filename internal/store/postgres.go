package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moodhome/moodhome/internal/types"
)

// Postgres stores identities and mood profiles in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a connection pool and ensures the schema is initialized.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// initSchema creates the tables if they don't exist (Auto-Migration).
func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS identities (
			face_hash TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			user_id TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS mood_profiles (
			user_id TEXT NOT NULL,
			mood TEXT NOT NULL,
			temp_c DOUBLE PRECISION,
			temp_k DOUBLE PRECISION,
			luminosity DOUBLE PRECISION,
			PRIMARY KEY (user_id, mood)
		);
	`
	_, err := pool.Exec(ctx, query)
	return err
}

// Close releases every pooled connection.
func (s *Postgres) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

// Ping checks the database is reachable.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// LookupIdentities fetches every record whose face_hash is in digests with a single query.
func (s *Postgres) LookupIdentities(ctx context.Context, digests []types.Digest) (map[types.Digest]types.Identity, error) {
	out := make(map[types.Digest]types.Identity, len(digests))
	if len(digests) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT face_hash, name, COALESCE(user_id, '') FROM identities WHERE face_hash = ANY($1)`,
		digestStrings(digests))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var hash, name, userID string
		if err := rows.Scan(&hash, &name, &userID); err != nil {
			return nil, err
		}
		d := types.Digest(hash)
		out[d] = types.Identity{Digest: d, DisplayName: name, UserID: userID}
	}
	return out, rows.Err()
}

// LookupProfile collects every mood row of userID. A user with no rows has no profile.
func (s *Postgres) LookupProfile(ctx context.Context, userID string) (types.Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT mood, temp_c, temp_k, luminosity FROM mood_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profile types.Profile
	for rows.Next() {
		var mood string
		var sp types.Setpoint
		if err := rows.Scan(&mood, &sp.TempC, &sp.TempK, &sp.Luminosity); err != nil {
			return nil, err
		}
		if profile == nil {
			profile = make(types.Profile)
		}
		profile[types.Mood(mood)] = sp
	}
	return profile, rows.Err()
}

// UpsertIdentity inserts or updates the record for id.Digest.
func (s *Postgres) UpsertIdentity(ctx context.Context, id types.Identity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO identities (face_hash, name, user_id)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (face_hash) DO UPDATE
		SET name = EXCLUDED.name, user_id = COALESCE(EXCLUDED.user_id, identities.user_id)
	`, string(id.Digest), id.DisplayName, id.UserID)
	return err
}

// RenameIdentity updates the name of a known identity.
func (s *Postgres) RenameIdentity(ctx context.Context, digest types.Digest, name string) error {
	tag, err := s.pool.Exec(ctx, "UPDATE identities SET name = $1 WHERE face_hash = $2", name, string(digest))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("identity %s: %w", digest, ErrNotFound)
	}
	return nil
}

// ListIdentities returns every identity, oldest first.
func (s *Postgres) ListIdentities(ctx context.Context) ([]types.Identity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT face_hash, name, COALESCE(user_id, '') FROM identities ORDER BY created_at, face_hash`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.Identity, error) {
		var hash, name, userID string
		err := row.Scan(&hash, &name, &userID)
		return types.Identity{Digest: types.Digest(hash), DisplayName: name, UserID: userID}, err
	})
}

// UpsertProfile sets the setpoint of one mood for userID.
func (s *Postgres) UpsertProfile(ctx context.Context, userID string, mood types.Mood, sp types.Setpoint) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO mood_profiles (user_id, mood, temp_c, temp_k, luminosity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, mood) DO UPDATE
		SET temp_c = EXCLUDED.temp_c, temp_k = EXCLUDED.temp_k, luminosity = EXCLUDED.luminosity
	`, userID, string(mood), sp.TempC, sp.TempK, sp.Luminosity)
	return err
}

// Reset drops all application tables to clear the database state.
// This is useful for development to force a schema refresh without migrations.
func (s *Postgres) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		DROP TABLE IF EXISTS identities CASCADE;
		DROP TABLE IF EXISTS mood_profiles CASCADE;
	`)
	return err
}
