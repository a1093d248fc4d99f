package db

import (
	"context"
	"fmt"

	"github.com/jonathan/trade-hire/internal/extraction"
	"github.com/jonathan/trade-hire/internal/schema"
)

var _ extraction.RunRecorder = (*DB)(nil)

// RecordRun inserts one extraction audit row.
func (db *DB) RecordRun(ctx context.Context, run extraction.Run) error {
	needsAttention := run.NeedsAttention
	if needsAttention == nil {
		needsAttention = []string{}
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO extraction_runs (id, task, status, error_kind, needs_attention, dropped, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, string(run.Task), run.Status, nullIfEmpty(string(run.ErrorKind)), needsAttention,
		run.Dropped, run.Duration.Milliseconds(), run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record extraction run: %w", err)
	}
	return nil
}

// RunStats summarizes recent runs for one task.
type RunStats struct {
	Task     schema.TaskKind `json:"task"`
	Total    int             `json:"total"`
	Failed   int             `json:"failed"`
	AvgMs    float64         `json:"avgMs"`
	TopError string          `json:"topError,omitempty"`
}

// ListRunStats aggregates runs per task, most active first.
func (db *DB) ListRunStats(ctx context.Context, limit int) ([]RunStats, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT task,
		        COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'failed'),
		        COALESCE(AVG(duration_ms), 0)::float8,
		        COALESCE(MODE() WITHIN GROUP (ORDER BY error_kind), '')
		 FROM extraction_runs
		 GROUP BY task
		 ORDER BY COUNT(*) DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run stats: %w", err)
	}
	defer rows.Close()

	var stats []RunStats
	for rows.Next() {
		var (
			s    RunStats
			task string
		)
		if err := rows.Scan(&task, &s.Total, &s.Failed, &s.AvgMs, &s.TopError); err != nil {
			return nil, fmt.Errorf("failed to scan run stats: %w", err)
		}
		s.Task = schema.TaskKind(task)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
