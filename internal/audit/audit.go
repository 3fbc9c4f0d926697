// Package audit projects job history into Postgres so "what ran, when,
// with what result" survives the process that ran it, even though the
// scheduler's own queue is intentionally in-memory only. Writes are
// best-effort and never participate in scheduling: a write failure is
// logged and dropped, never retried, and never blocks or fails a job.
// Absent a configured DSN, Sink is a no-op.
package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/fisherhq/fisher/internal/jobs"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS fisher_job_history (
	id          BIGSERIAL PRIMARY KEY,
	job_id      UUID NOT NULL,
	script_name TEXT NOT NULL,
	success     BOOLEAN NOT NULL,
	exit_code   INTEGER,
	signal      INTEGER,
	request_ip  TEXT,
	ran_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Sink appends completed JobOutputs to Postgres.
type Sink struct {
	pool *pgxpool.Pool
}

// New connects to dsn and ensures the history table exists. An empty dsn
// yields a nil, disabled Sink.
func New(ctx context.Context, dsn string) (*Sink, error) {
	if dsn == "" {
		return nil, nil
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		return nil, err
	}

	return &Sink{pool: pool}, nil
}

func (s *Sink) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// OnJobEnded implements scheduler.Observer's history-relevant callback.
func (s *Sink) OnJobEnded(scriptName string, output *jobs.Output) {
	if s == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := s.pool.Exec(ctx,
			`INSERT INTO fisher_job_history (job_id, script_name, success, exit_code, signal, request_ip) VALUES ($1, $2, $3, $4, $5, $6)`,
			output.JobID, scriptName, output.Success, output.ExitCode, output.Signal, output.RequestIP,
		)
		if err != nil {
			log.Warn().Err(err).Str("script", scriptName).Msg("audit: failed to record job history")
		}
	}()
}

func (s *Sink) OnSubmit(string, int, int) {}
func (s *Sink) OnDispatch(string, int)    {}
func (s *Sink) OnCascade(string, string)  {}
func (s *Sink) OnReload(bool)             {}
