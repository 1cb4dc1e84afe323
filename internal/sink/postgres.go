package sink

import (
	"context"
	"fmt"
	"time"

	"go-jobboard-scraper/internal/scraper"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createJobRecords = `
CREATE TABLE IF NOT EXISTS job_records (
	source      TEXT        NOT NULL,
	job_url     TEXT        NOT NULL,
	payload     JSONB       NOT NULL,
	captured_at TEXT        NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source, job_url)
)`

const upsertJobRecord = `
INSERT INTO job_records (source, job_url, payload, captured_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (source, job_url)
DO UPDATE SET payload = EXCLUDED.payload, captured_at = EXCLUDED.captured_at, updated_at = now()`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSink upserts every record keyed by (source, job_url).
type PostgresSink struct {
	db             execer
	source         string
	urlField       string
	timestampField string
}

// ConnectPostgres opens a pool and makes sure the job_records table exists.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = time.Hour
	// poolers in transaction mode do not support prepared statements
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if _, err := pool.Exec(ctx, createJobRecords); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create job_records: %w", err)
	}
	return pool, nil
}

func NewPostgresSink(pool *pgxpool.Pool, source, urlField, timestampField string) *PostgresSink {
	return &PostgresSink{db: pool, source: source, urlField: urlField, timestampField: timestampField}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Write(ctx context.Context, c scraper.Collection) (string, error) {
	written := 0
	for _, rec := range c.Records() {
		url, ok := rec.Get(s.urlField)
		if !ok {
			return "", fmt.Errorf("record has no %q field", s.urlField)
		}
		payload, err := rec.MarshalJSON()
		if err != nil {
			return "", err
		}
		if _, err := s.db.Exec(ctx, upsertJobRecord, s.source, url, string(payload), rec.Value(s.timestampField)); err != nil {
			return fmt.Sprintf("%d upserted", written), fmt.Errorf("upsert %s: %w", url, err)
		}
		written++
	}
	return fmt.Sprintf("%d upserted into job_records", written), nil
}
