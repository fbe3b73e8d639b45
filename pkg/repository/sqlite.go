package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/vybelabs/numen/pkg/model"
	_ "modernc.org/sqlite"
)

// SQLite is a Repository backed by a local SQLite database, for
// deployments that need rotation state and counters to survive restarts
// without a cloud dependency.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create db dir", goerr.V("dir", dir))
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open db", goerr.V("path", dbPath))
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to migrate db")
	}

	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fallback_rotation (
		entry_id  TEXT PRIMARY KEY,
		pair_key  TEXT NOT NULL,
		seq       INTEGER NOT NULL DEFAULT 0,
		used_at   TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_rotation_pair ON fallback_rotation(pair_key);

	CREATE TABLE IF NOT EXISTS outcome_stats (
		outcome      TEXT PRIMARY KEY,
		count        INTEGER NOT NULL DEFAULT 0,
		duration_ns  INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return goerr.Wrap(err, "failed to create schema")
	}
	return nil
}

func (s *SQLite) ClaimFallback(ctx context.Context, pairKey string, candidates []model.FallbackID) (model.FallbackID, error) {
	if len(candidates) == 0 {
		return "", goerr.Wrap(ErrNoCandidate, "empty candidate set", goerr.V("pair", pairKey))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	// Ensure every candidate has a rotation row, then pick the oldest.
	for _, id := range candidates {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO fallback_rotation (entry_id, pair_key, seq) VALUES (?, ?, 0)`,
			string(id), pairKey); err != nil {
			return "", goerr.Wrap(err, "failed to seed rotation row", goerr.V("entry", id))
		}
	}

	var best string
	err = tx.QueryRowContext(ctx,
		`SELECT entry_id FROM fallback_rotation WHERE pair_key = ? ORDER BY seq ASC, entry_id ASC LIMIT 1`,
		pairKey).Scan(&best)
	if err != nil {
		return "", goerr.Wrap(err, "failed to select LRU entry", goerr.V("pair", pairKey))
	}

	var maxSeq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM fallback_rotation WHERE pair_key = ?`,
		pairKey).Scan(&maxSeq); err != nil {
		return "", goerr.Wrap(err, "failed to read rotation sequence")
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE fallback_rotation SET seq = ?, used_at = ? WHERE entry_id = ?`,
		maxSeq+1, time.Now().UTC().Format(time.RFC3339Nano), best); err != nil {
		return "", goerr.Wrap(err, "failed to advance rotation", goerr.V("entry", best))
	}

	if err := tx.Commit(); err != nil {
		return "", goerr.Wrap(err, "failed to commit rotation claim")
	}

	return model.FallbackID(best), nil
}

func (s *SQLite) LastUsedAt(ctx context.Context, id model.FallbackID) (time.Time, error) {
	var usedAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT used_at FROM fallback_rotation WHERE entry_id = ?`, string(id)).Scan(&usedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "failed to read used_at", goerr.V("entry", id))
	}
	if !usedAt.Valid {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, usedAt.String)
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "failed to parse used_at", goerr.V("value", usedAt.String))
	}
	return t, nil
}

func (s *SQLite) RecordOutcome(ctx context.Context, outcome Outcome, d time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcome_stats (outcome, count, duration_ns) VALUES (?, 1, ?)
		ON CONFLICT(outcome) DO UPDATE SET
			count = count + 1,
			duration_ns = duration_ns + excluded.duration_ns`,
		string(outcome), d.Nanoseconds())
	if err != nil {
		return goerr.Wrap(err, "failed to record outcome", goerr.V("outcome", outcome))
	}
	return nil
}

func (s *SQLite) GetStats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, count, duration_ns FROM outcome_stats`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query stats")
	}
	defer rows.Close()

	stats := &Stats{}
	for rows.Next() {
		var outcome string
		var count, durationNS int64
		if err := rows.Scan(&outcome, &count, &durationNS); err != nil {
			return nil, goerr.Wrap(err, "failed to scan stats row")
		}
		switch Outcome(outcome) {
		case OutcomeAccepted:
			stats.Accepted = count
		case OutcomeFallback:
			stats.Fallback = count
		case OutcomeEmergency:
			stats.Emergency = count
		}
		stats.TotalRequests += count
		stats.TotalDuration += time.Duration(durationNS)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate stats rows")
	}

	return stats, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
