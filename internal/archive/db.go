// Package archive keeps a local record of completed transcription runs,
// the client-side sibling of the portal's server-side history table.
// Only successful runs are written; failed or cancelled operations leave
// no trace here.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    file_name   TEXT NOT NULL,
    language    TEXT NOT NULL DEFAULT 'auto',
    chunk_count INTEGER NOT NULL DEFAULT 0,
    elapsed_ms  INTEGER NOT NULL DEFAULT 0,
    full_text   TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_chunks (
    run_id      TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    chunk_index INTEGER NOT NULL,
    text        TEXT NOT NULL,
    PRIMARY KEY (run_id, seq)
);
`

const timeLayout = "2006-01-02T15:04:05Z"

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Segment is one archived transcript chunk in delivery order.
type Segment struct {
	Index int
	Text  string
}

type Run struct {
	ID         string
	FileName   string
	Language   string
	ChunkCount int
	ElapsedMs  int64
	FullText   string
	CreatedAt  time.Time
}

// Record stores one completed run and its chunks in a single
// transaction and returns the run id.
func (d *DB) Record(fileName, language string, segments []Segment, elapsed time.Duration) (string, error) {
	id := uuid.New().String()

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	fullText := strings.Join(parts, " ")

	tx, err := d.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, file_name, language, chunk_count, elapsed_ms, full_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, fileName, language, len(segments), elapsed.Milliseconds(), fullText,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO run_chunks (run_id, seq, chunk_index, text) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return "", fmt.Errorf("prepare chunks: %w", err)
	}
	defer stmt.Close()

	for seq, seg := range segments {
		if _, err := stmt.Exec(id, seq, seg.Index, seg.Text); err != nil {
			return "", fmt.Errorf("insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Recent returns the most recent runs, newest first.
func (d *DB) Recent(limit int) ([]Run, error) {
	rows, err := d.db.Query(
		`SELECT id, file_name, language, chunk_count, elapsed_ms, full_text, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.FileName, &r.Language, &r.ChunkCount, &r.ElapsedMs, &r.FullText, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(timeLayout, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Latest returns the most recent run, or nil when the archive is empty.
func (d *DB) Latest() (*Run, error) {
	runs, err := d.Recent(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// Segments returns the archived chunks of a run in delivery order.
func (d *DB) Segments(runID string) ([]Segment, error) {
	rows, err := d.db.Query(
		`SELECT chunk_index, text FROM run_chunks WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var segments []Segment
	for rows.Next() {
		var s Segment
		if err := rows.Scan(&s.Index, &s.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

// RunCount reports how many runs are archived, used by doctor.
func (d *DB) RunCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n)
	return n, err
}
