package pipeline

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// RunRecorder persists run tracking records.
type RunRecorder interface {
	CreateRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	GetLatestRun(ctx context.Context) (*Run, error)
}

// Repository handles database operations for run tracking
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new run repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun creates a new run record
func (r *Repository) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO reorder_runs (
			trigger, status, total_items, processed_items,
			failed_items, started_at, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	return r.db.QueryRowContext(
		ctx, query,
		run.Trigger, run.Status, run.TotalItems, run.ProcessedItems,
		run.FailedItems, run.StartedAt, run.ErrorMessage,
	).Scan(&run.ID)
}

// UpdateRun updates an existing run
func (r *Repository) UpdateRun(ctx context.Context, run *Run) error {
	query := `
		UPDATE reorder_runs
		SET status = $1, total_items = $2, processed_items = $3,
		    failed_items = $4, completed_at = $5, error_message = $6
		WHERE id = $7
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.TotalItems, run.ProcessedItems,
		run.FailedItems, run.CompletedAt, run.ErrorMessage, run.ID,
	)

	return err
}

// GetLatestRun returns the most recently started run, or nil when none exist
func (r *Repository) GetLatestRun(ctx context.Context) (*Run, error) {
	query := `
		SELECT id, trigger, status, total_items, processed_items,
		       failed_items, started_at, completed_at, error_message
		FROM reorder_runs
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`

	run := &Run{}
	err := r.db.GetContext(ctx, run, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}

// NoopRecorder discards run records. Used when no database is attached.
type NoopRecorder struct{}

func (NoopRecorder) CreateRun(ctx context.Context, run *Run) error { return nil }

func (NoopRecorder) UpdateRun(ctx context.Context, run *Run) error { return nil }

func (NoopRecorder) GetLatestRun(ctx context.Context) (*Run, error) { return nil, nil }
