// Package journal records every region program attempt in SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/region"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS program_attempts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	region      TEXT    NOT NULL,
	image       TEXT    NOT NULL,
	firmware    TEXT    NOT NULL DEFAULT '',
	outcome     TEXT    NOT NULL,
	interfaces  TEXT    NOT NULL DEFAULT '',
	error       TEXT    NOT NULL DEFAULT '',
	started_at  INTEGER NOT NULL,
	duration_us INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS program_attempts_region ON program_attempts (region, id);
`

// Entry is one recorded program attempt.
type Entry struct {
	ID         int64
	Region     string
	Image      string
	Firmware   string
	Outcome    string
	Interfaces []string
	Error      string
	Started    time.Time
	Duration   time.Duration
}

// Journal is a SQLite-backed program history. It implements region.Observer.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record stores one event.
func (j *Journal) Record(ctx context.Context, ev region.Event) error {
	var errText string
	if ev.Err != nil {
		errText = ev.Err.Error()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO program_attempts (region, image, firmware, outcome, interfaces, error, started_at, duration_us)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Region, ev.Image, ev.Firmware, ev.Outcome,
		strings.Join(ev.Interfaces, ","), errText,
		ev.Started.UnixMicro(), ev.Duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("record program attempt: %w", err)
	}
	return nil
}

// Observe records ev and logs a failure instead of returning it.
func (j *Journal) Observe(ctx context.Context, ev region.Event) {
	if err := j.Record(ctx, ev); err != nil {
		ctxlog.FromContext(ctx).Error("Failed to journal program attempt.", "region", ev.Region, "error", err)
	}
}

// List returns the most recent entries first. An empty regionName lists
// every region; limit <= 0 means no limit.
func (j *Journal) List(ctx context.Context, regionName string, limit int) ([]Entry, error) {
	query := `SELECT id, region, image, firmware, outcome, interfaces, error, started_at, duration_us FROM program_attempts`
	var args []any
	if regionName != "" {
		query += ` WHERE region = ?`
		args = append(args, regionName)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			interfaces string
			startedUS  int64
			durationUS int64
		)
		if err := rows.Scan(&e.ID, &e.Region, &e.Image, &e.Firmware, &e.Outcome, &interfaces, &e.Error, &startedUS, &durationUS); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		if interfaces != "" {
			e.Interfaces = strings.Split(interfaces, ",")
		}
		e.Started = time.UnixMicro(startedUS)
		e.Duration = time.Duration(durationUS) * time.Microsecond
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return out, nil
}
