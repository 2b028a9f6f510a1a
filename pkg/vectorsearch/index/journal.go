package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/vectorsearch/pkg/vectorsearch/internalerr"
)

// Journal is a build/merge bookkeeping store: one row per phase per
// build run, so an operator can see how far a build got before it was
// interrupted. It is purely observational — builder correctness never
// depends on reading it back, only on doc_metadata/idf presence on disk.
type Journal struct {
	db *sql.DB
}

// JournalRow is one recorded phase attempt.
type JournalRow struct {
	RunID      string
	Lang       string
	Phase      string
	StartedAt  time.Time
	FinishedAt *time.Time
	DocCount   int
	Err        string
}

// OpenJournal opens (creating if absent) the build journal database at
// <indexRoot>/build.db, with WAL mode enabled for concurrent readers
// during a long build.
func OpenJournal(ctx context.Context, indexRoot string) (*Journal, error) {
	if err := os.MkdirAll(indexRoot, 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir %s: %v", internalerr.ErrIO, indexRoot, err)
	}

	path := filepath.Join(indexRoot, "build.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", internalerr.ErrIO, path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrIO, err)
	}
	if err := initJournalSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

func initJournalSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS build_runs (
	run_id      TEXT NOT NULL,
	lang        TEXT NOT NULL,
	phase       TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	doc_count   INTEGER DEFAULT 0,
	err         TEXT,
	PRIMARY KEY (run_id, phase)
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: init schema: %v", internalerr.ErrIO, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// PhaseStarted records (or re-records, on resume) the start of a phase.
func (j *Journal) PhaseStarted(ctx context.Context, runID, lang, phase string, startedAt time.Time) error {
	_, err := j.db.ExecContext(ctx, `
INSERT INTO build_runs (run_id, lang, phase, started_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (run_id, phase) DO UPDATE SET started_at = excluded.started_at
`, runID, lang, phase, startedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrIO, err)
	}
	return nil
}

// PhaseFinished records the completion (success or failure) of a phase.
func (j *Journal) PhaseFinished(ctx context.Context, runID, phase string, finishedAt time.Time, docCount int, phaseErr error) error {
	var errText sql.NullString
	if phaseErr != nil {
		errText = sql.NullString{String: phaseErr.Error(), Valid: true}
	}
	_, err := j.db.ExecContext(ctx, `
UPDATE build_runs SET finished_at = ?, doc_count = ?, err = ?
WHERE run_id = ? AND phase = ?
`, finishedAt.UTC().Format(time.RFC3339Nano), docCount, errText, runID, phase)
	if err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrIO, err)
	}
	return nil
}

// Rows returns every recorded phase for a build run, ordered by start
// time, for diagnostics (e.g. "what did the last build attempt reach").
func (j *Journal) Rows(ctx context.Context, runID string) ([]JournalRow, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT run_id, lang, phase, started_at, finished_at, doc_count, err
FROM build_runs WHERE run_id = ? ORDER BY started_at ASC
`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrIO, err)
	}
	defer rows.Close()

	var out []JournalRow
	for rows.Next() {
		var (
			r          JournalRow
			startedAt  string
			finishedAt sql.NullString
			errText    sql.NullString
		)
		if err := rows.Scan(&r.RunID, &r.Lang, &r.Phase, &startedAt, &finishedAt, &r.DocCount, &errText); err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrIO, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			r.StartedAt = t
		}
		if finishedAt.Valid {
			if t, err := time.Parse(time.RFC3339Nano, finishedAt.String); err == nil {
				r.FinishedAt = &t
			}
		}
		r.Err = errText.String
		out = append(out, r)
	}
	return out, rows.Err()
}
