package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"funnel_server/core/domain"
	"funnel_server/core/port/out"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const preferenceDocID = "default"

// PostgresPreferenceStore keeps the preference document as one JSONB row.
// Writes are unconditional upserts, so concurrent writers are last-write-wins.
type PostgresPreferenceStore struct {
	pool     *pgxpool.Pool
	defaults DefaultsFunc
	now      func() time.Time
}

var _ out.PreferenceStore = (*PostgresPreferenceStore)(nil)

func NewPostgresPreferenceStore(pool *pgxpool.Pool, defaults DefaultsFunc) *PostgresPreferenceStore {
	return &PostgresPreferenceStore{
		pool:     pool,
		defaults: defaults,
		now:      time.Now,
	}
}

func (s *PostgresPreferenceStore) Backend() string {
	return "postgres"
}

// EnsureSchema creates the preference table if missing.
func (s *PostgresPreferenceStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS funnel_preferences (
			id         TEXT PRIMARY KEY,
			document   JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create funnel_preferences: %w", err)
	}
	return nil
}

func (s *PostgresPreferenceStore) Load(ctx context.Context) (*domain.Preferences, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM funnel_preferences WHERE id = $1`, preferenceDocID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.defaults(), nil
	}
	if err != nil {
		return s.defaults(), &domain.DegradedError{Backend: s.Backend(), Err: err}
	}
	return decodePreferences(data, s.Backend(), s.defaults)
}

func (s *PostgresPreferenceStore) Save(ctx context.Context, prefs *domain.Preferences) error {
	prefs.UpdatedAt = s.now().UTC()
	data, err := encodePreferences(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO funnel_preferences (id, document, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		preferenceDocID, data, prefs.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *PostgresPreferenceStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
