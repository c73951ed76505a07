// Package store keeps dumped strings and their translations in PostgreSQL so
// a team can translate in the database instead of passing CSV files around.
package store

import (
	"context"
	"fmt"

	"binu8-translator/internal/transport"
	"binu8-translator/internal/worker"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS script_strings (
	file        TEXT        NOT NULL,
	id          INTEGER     NOT NULL,
	original    TEXT        NOT NULL,
	translation TEXT        NOT NULL DEFAULT '',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (file, id)
)`

// upsertSQL refreshes the original text but never clears a translation.
const upsertSQL = `
INSERT INTO script_strings (file, id, original, translation)
VALUES ($1, $2, $3, $4)
ON CONFLICT (file, id) DO UPDATE
SET original   = EXCLUDED.original,
    translation = CASE WHEN EXCLUDED.translation <> '' THEN EXCLUDED.translation ELSE script_strings.translation END,
    updated_at = now()`

const selectTranslationsSQL = `
SELECT file, id, translation
FROM script_strings
WHERE translation <> ''
ORDER BY file, id`

// DB is the subset of *pgxpool.Pool used by StringStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// StringStore persists script strings keyed by (file, id).
type StringStore struct {
	db        DB
	batchSize int
}

// NewStringStore creates a store writing batchSize rows per round trip.
func NewStringStore(db DB, batchSize int) *StringStore {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &StringStore{db: db, batchSize: batchSize}
}

// Connect opens and pings a PostgreSQL pool.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")

	return pool, nil
}

// EnsureSchema creates the strings table if it does not exist.
func (s *StringStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create script_strings: %w", err)
	}
	return nil
}

// SaveRows upserts rows in batches.
func (s *StringStore) SaveRows(ctx context.Context, rows []transport.Row) error {
	for _, chunk := range worker.Batch(rows, s.batchSize) {
		if err := s.saveChunk(ctx, chunk); err != nil {
			return err
		}
	}

	log.Info().Int("rows", len(rows)).Msg("Stored strings in PostgreSQL")
	return nil
}

func (s *StringStore) saveChunk(ctx context.Context, rows []transport.Row) (err error) {
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(upsertSQL, r.File, r.ID, r.Original, r.Translation)
	}

	br := s.db.SendBatch(ctx, b)
	defer func() {
		if cerr := br.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close batch: %w", cerr)
		}
	}()

	for _, r := range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert %s#%d: %w", r.File, r.ID, err)
		}
	}
	return nil
}

// LoadTranslations returns every non-empty translation in the store.
func (s *StringStore) LoadTranslations(ctx context.Context) (transport.TranslationMap, error) {
	rows, err := s.db.Query(ctx, selectTranslationsSQL)
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	defer rows.Close()

	m := make(transport.TranslationMap)
	for rows.Next() {
		var (
			file string
			id   int32
			text string
		)
		if err := rows.Scan(&file, &id, &text); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		m.Set(file, int(id), text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translations: %w", err)
	}

	log.Info().Int("translations", m.Len()).Msg("Loaded translations from PostgreSQL")
	return m, nil
}
