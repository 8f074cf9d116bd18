package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig sizes the Postgres connection pool.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Postgres stores runs in PostgreSQL. Records are written with COPY.
type Postgres struct {
	pool *pgxpool.Pool
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id UUID PRIMARY KEY,
		domain TEXT NOT NULL,
		tier TEXT NOT NULL,
		variant TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		total INTEGER NOT NULL,
		valid INTEGER NOT NULL,
		invalid INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS run_records (
		run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		line INTEGER NOT NULL,
		data JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS run_failures (
		run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		line INTEGER NOT NULL,
		field TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL,
		code TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_run_records_run ON run_records(run_id, line)`,
	`CREATE INDEX IF NOT EXISTS idx_run_failures_run ON run_failures(run_id, line)`,
}

// OpenPostgres connects to url, verifies the connection and creates the
// tables if needed.
func OpenPostgres(ctx context.Context, url string, cfg PoolConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &Postgres{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Postgres) migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun implements Store.
func (s *Postgres) SaveRun(ctx context.Context, run *Run, records []Record, failures []Failure) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op once committed

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, domain, tier, variant, source, total, valid, invalid, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, string(run.Profile.Domain), string(run.Profile.Tier), string(run.Profile.Variant),
		run.Source, run.Total, run.Valid, run.Invalid, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(records) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"run_records"},
			[]string{"run_id", "line", "data"},
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				return []any{run.ID, records[i].Line, []byte(records[i].Data)}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy records: %w", err)
		}
	}

	if len(failures) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"run_failures"},
			[]string{"run_id", "line", "field", "reason", "code"},
			pgx.CopyFromSlice(len(failures), func(i int) ([]any, error) {
				f := failures[i]
				return []any{run.ID, f.Line, f.Field, f.Reason, f.Code}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy failures: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRun implements Store.
func (s *Postgres) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var (
		run                   Run
		domain, tier, variant string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, domain, tier, variant, source, total, valid, invalid, created_at
		 FROM runs WHERE id = $1`, id,
	).Scan(&run.ID, &domain, &tier, &variant, &run.Source, &run.Total, &run.Valid, &run.Invalid, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.Profile = profileKey(domain, tier, variant)
	return &run, nil
}

// ListRecords implements Store.
func (s *Postgres) ListRecords(ctx context.Context, id uuid.UUID, limit int) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT line, data FROM run_records WHERE run_id = $1 ORDER BY line LIMIT $2`,
		id, listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		var data []byte
		err := row.Scan(&r.Line, &data)
		r.Data = data
		return r, err
	})
}

// ListFailures implements Store.
func (s *Postgres) ListFailures(ctx context.Context, id uuid.UUID, limit int) ([]Failure, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT line, field, reason, code FROM run_failures WHERE run_id = $1 ORDER BY line LIMIT $2`,
		id, listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Failure])
}

// Ping implements Store.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements Store.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
