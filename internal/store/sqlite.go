package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

// SQLite stores runs in a local SQLite file.
type SQLite struct {
	db *sql.DB
}

var (
	_ Store = (*SQLite)(nil)
	_ Store = (*Postgres)(nil)
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		tier TEXT NOT NULL,
		variant TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		total INTEGER NOT NULL,
		valid INTEGER NOT NULL,
		invalid INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS run_records (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		line INTEGER NOT NULL,
		data TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS run_failures (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		line INTEGER NOT NULL,
		field TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL,
		code TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_run_records_run ON run_records(run_id, line)`,
	`CREATE INDEX IF NOT EXISTS idx_run_failures_run ON run_failures(run_id, line)`,
}

// OpenSQLite opens (or creates) the database at path. ":memory:" opens a
// private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; also keeps an in-memory database on a single connection.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return s, nil
}

// SaveRun implements Store.
func (s *SQLite) SaveRun(ctx context.Context, run *Run, records []Record, failures []Failure) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op once committed

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, domain, tier, variant, source, total, valid, invalid, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), string(run.Profile.Domain), string(run.Profile.Tier), string(run.Profile.Variant),
		run.Source, run.Total, run.Valid, run.Invalid, run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	recStmt, err := tx.PrepareContext(ctx, `INSERT INTO run_records (run_id, line, data) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare records: %w", err)
	}
	defer recStmt.Close()
	for _, r := range records {
		if _, err := recStmt.ExecContext(ctx, run.ID.String(), r.Line, string(r.Data)); err != nil {
			return fmt.Errorf("insert record line %d: %w", r.Line, err)
		}
	}

	failStmt, err := tx.PrepareContext(ctx, `INSERT INTO run_failures (run_id, line, field, reason, code) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare failures: %w", err)
	}
	defer failStmt.Close()
	for _, f := range failures {
		if _, err := failStmt.ExecContext(ctx, run.ID.String(), f.Line, f.Field, f.Reason, f.Code); err != nil {
			return fmt.Errorf("insert failure line %d: %w", f.Line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRun implements Store.
func (s *SQLite) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var (
		run                        Run
		rid, domain, tier, variant string
		created                    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, domain, tier, variant, source, total, valid, invalid, created_at
		 FROM runs WHERE id = ?`, id.String(),
	).Scan(&rid, &domain, &tier, &variant, &run.Source, &run.Total, &run.Valid, &run.Invalid, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	if run.ID, err = uuid.Parse(rid); err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.Profile = profileKey(domain, tier, variant)
	return &run, nil
}

// ListRecords implements Store.
func (s *SQLite) ListRecords(ctx context.Context, id uuid.UUID, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT line, data FROM run_records WHERE run_id = ? ORDER BY line LIMIT ?`,
		id.String(), listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var data string
		if err := rows.Scan(&r.Line, &data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Data = []byte(data)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListFailures implements Store.
func (s *SQLite) ListFailures(ctx context.Context, id uuid.UUID, limit int) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT line, field, reason, code FROM run_failures WHERE run_id = ? ORDER BY line LIMIT ?`,
		id.String(), listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Line, &f.Field, &f.Reason, &f.Code); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Ping implements Store.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func profileKey(domain, tier, variant string) core.ProfileKey {
	return core.ProfileKey{
		Domain:  core.Domain(domain),
		Tier:    core.Tier(tier),
		Variant: core.Variant(variant),
	}
}
