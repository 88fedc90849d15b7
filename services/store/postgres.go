package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"sjsage522/listingwatch/logger"
	apperrors "sjsage522/listingwatch/pkg/errors"
)

const (
	upsertBatchSize = 100
	metaLastSummary = "last_summary"
)

// PostgresBackend keeps state in the seen_items and active_items tables, with
// run bookkeeping such as the last summary day in state_meta
type PostgresBackend struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgresBackend opens the database, waits for it to answer and migrates the schema
func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, apperrors.NewStore("postgres", "open", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, apperrors.NewStore("postgres", "ping", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		db.Close()
		return nil, apperrors.NewStore("postgres", "ping failed after retries", err)
	}

	b := &PostgresBackend{db: db, log: logger.ForStore()}
	if err := b.migrate(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStore("postgres", "migrate", err)
	}
	return b, nil
}

func (b *PostgresBackend) migrate(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS seen_items (
			hash       TEXT        PRIMARY KEY,
			first_seen TIMESTAMPTZ NOT NULL,
			title      TEXT        NOT NULL DEFAULT '',
			source     TEXT        NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS active_items (
			hash      TEXT        PRIMARY KEY,
			listing   JSONB       NOT NULL,
			last_seen TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_active_items_last_seen ON active_items(last_seen);

		CREATE TABLE IF NOT EXISTS state_meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// Load reads both tables
func (b *PostgresBackend) Load(ctx context.Context) (*State, error) {
	state := NewState()

	rows, err := b.db.QueryContext(ctx, `SELECT hash, first_seen, title, source FROM seen_items`)
	if err != nil {
		return nil, apperrors.NewStore("postgres", "load seen", err)
	}
	for rows.Next() {
		var hash string
		var entry SeenEntry
		if err := rows.Scan(&hash, &entry.FirstSeen, &entry.Title, &entry.Source); err != nil {
			rows.Close()
			return nil, apperrors.NewStore("postgres", "scan seen", err)
		}
		state.Seen[hash] = entry
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStore("postgres", "load seen", err)
	}

	rows, err = b.db.QueryContext(ctx, `SELECT hash, listing, last_seen FROM active_items`)
	if err != nil {
		return nil, apperrors.NewStore("postgres", "load active", err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw []byte
		entry := ActiveEntry{}
		if err := rows.Scan(&entry.Hash, &raw, &entry.LastSeen); err != nil {
			return nil, apperrors.NewStore("postgres", "scan active", err)
		}
		if err := json.Unmarshal(raw, &entry.Listing); err != nil {
			return nil, apperrors.NewStore("postgres", fmt.Sprintf("active entry %s is corrupt", entry.Hash), err)
		}
		state.Active[entry.Hash] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStore("postgres", "load active", err)
	}

	err = b.db.QueryRowContext(ctx, `SELECT value FROM state_meta WHERE key = $1`, metaLastSummary).Scan(&state.LastSummary)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewStore("postgres", "load last summary", err)
	}

	b.log.Debug().Int("seen", len(state.Seen)).Int("active", len(state.Active)).Msg("Loaded state")
	return state, nil
}

// Save upserts every entry and deletes rows no longer present, in one transaction
func (b *PostgresBackend) Save(ctx context.Context, s *State) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStore("postgres", "begin", err)
	}
	defer tx.Rollback()

	seenHashes := make([]string, 0, len(s.Seen))
	for hash := range s.Seen {
		seenHashes = append(seenHashes, hash)
	}
	activeHashes := make([]string, 0, len(s.Active))
	for hash := range s.Active {
		activeHashes = append(activeHashes, hash)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM seen_items WHERE NOT (hash = ANY($1))`, pq.Array(seenHashes)); err != nil {
		return apperrors.NewStore("postgres", "prune seen", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM active_items WHERE NOT (hash = ANY($1))`, pq.Array(activeHashes)); err != nil {
		return apperrors.NewStore("postgres", "prune active", err)
	}

	for i := 0; i < len(seenHashes); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(seenHashes))
		if err := upsertSeen(ctx, tx, s, seenHashes[i:end]); err != nil {
			return apperrors.NewStore("postgres", "upsert seen", err)
		}
	}
	for i := 0; i < len(activeHashes); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(activeHashes))
		if err := upsertActive(ctx, tx, s, activeHashes[i:end]); err != nil {
			return apperrors.NewStore("postgres", "upsert active", err)
		}
	}

	if s.LastSummary != "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO state_meta (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
		`, metaLastSummary, s.LastSummary)
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM state_meta WHERE key = $1`, metaLastSummary)
	}
	if err != nil {
		return apperrors.NewStore("postgres", "save last summary", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStore("postgres", "commit", err)
	}

	b.log.Debug().Int("seen", len(seenHashes)).Int("active", len(activeHashes)).Msg("Saved state")
	return nil
}

func upsertSeen(ctx context.Context, tx *sql.Tx, s *State, hashes []string) error {
	valueStrings := make([]string, 0, len(hashes))
	valueArgs := make([]interface{}, 0, len(hashes)*4)
	for idx, hash := range hashes {
		entry := s.Seen[hash]
		base := idx * 4
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		valueArgs = append(valueArgs, hash, entry.FirstSeen, entry.Title, entry.Source)
	}

	query := fmt.Sprintf(`
		INSERT INTO seen_items (hash, first_seen, title, source)
		VALUES %s
		ON CONFLICT (hash) DO UPDATE SET
			first_seen = EXCLUDED.first_seen,
			title      = EXCLUDED.title,
			source     = EXCLUDED.source
	`, strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

func upsertActive(ctx context.Context, tx *sql.Tx, s *State, hashes []string) error {
	valueStrings := make([]string, 0, len(hashes))
	valueArgs := make([]interface{}, 0, len(hashes)*3)
	for idx, hash := range hashes {
		entry := s.Active[hash]
		listing, err := json.Marshal(entry.Listing)
		if err != nil {
			return err
		}
		base := idx * 3
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d)", base+1, base+2, base+3))
		valueArgs = append(valueArgs, hash, string(listing), entry.LastSeen)
	}

	query := fmt.Sprintf(`
		INSERT INTO active_items (hash, listing, last_seen)
		VALUES %s
		ON CONFLICT (hash) DO UPDATE SET
			listing   = EXCLUDED.listing,
			last_seen = EXCLUDED.last_seen
	`, strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

// Close closes the database handle
func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
