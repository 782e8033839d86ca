package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/domain/entity"
	"github.com/printdock/labelsync/pkg/database"
)

// SyncRunRepository implements port.SyncRunRepository on SQLite
type SyncRunRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSyncRunRepository creates a new sync run repository
func NewSyncRunRepository(db *database.DB, logger *zap.Logger) port.SyncRunRepository {
	return &SyncRunRepository{
		db:     db,
		logger: logger,
	}
}

const syncRunColumns = `id, state, created, updated, skipped, errors, message, started_at, finished_at`

// Create records the start of a sync pass.
func (r *SyncRunRepository) Create(ctx context.Context, run *entity.SyncRun) error {
	query := `
		INSERT INTO sync_runs (id, state, created, updated, skipped, errors, message, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		run.ID,
		run.State,
		run.Created,
		run.Updated,
		run.Skipped,
		run.Errors,
		run.Message,
		run.StartedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create sync run", zap.String("id", run.ID), zap.Error(err))
		return fmt.Errorf("failed to create sync run: %w", err)
	}
	return nil
}

// Complete marks the run as finished with its report counters.
func (r *SyncRunRepository) Complete(ctx context.Context, id string, report entity.SyncReport) error {
	query := `
		UPDATE sync_runs
		SET state = ?, created = ?, updated = ?, skipped = ?, errors = ?, message = ?, finished_at = ?
		WHERE id = ?
	`
	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		entity.SyncRunCompleted,
		report.Created,
		report.Updated,
		report.Skipped,
		report.Errors,
		report.Message,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		r.logger.Error("Failed to complete sync run", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to complete sync run: %w", err)
	}
	return nil
}

// Fail marks the run as aborted with a failure message.
func (r *SyncRunRepository) Fail(ctx context.Context, id string, message string) error {
	query := `UPDATE sync_runs SET state = ?, message = ?, finished_at = ? WHERE id = ?`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		entity.SyncRunFailed,
		message,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		r.logger.Error("Failed to mark sync run failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark sync run failed: %w", err)
	}
	return nil
}

// GetLatest returns the most recently started run, or nil when no run has
// ever happened.
func (r *SyncRunRepository) GetLatest(ctx context.Context) (*entity.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT 1`

	var (
		run        entity.SyncRun
		finishedAt sql.NullTime
	)
	err := r.db.Executor(ctx).QueryRowContext(ctx, query).Scan(
		&run.ID,
		&run.State,
		&run.Created,
		&run.Updated,
		&run.Skipped,
		&run.Errors,
		&run.Message,
		&run.StartedAt,
		&finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get latest sync run", zap.Error(err))
		return nil, fmt.Errorf("failed to get latest sync run: %w", err)
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

// LastSyncedAt returns when the last successful pass finished, or nil when
// none has completed yet.
func (r *SyncRunRepository) LastSyncedAt(ctx context.Context) (*time.Time, error) {
	query := `
		SELECT finished_at FROM sync_runs
		WHERE state = ? AND finished_at IS NOT NULL
		ORDER BY finished_at DESC LIMIT 1
	`

	var finishedAt sql.NullTime
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, entity.SyncRunCompleted).Scan(&finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get last synced time", zap.Error(err))
		return nil, fmt.Errorf("failed to get last synced time: %w", err)
	}
	if !finishedAt.Valid {
		return nil, nil
	}
	return &finishedAt.Time, nil
}

// Verify interface compliance
var _ port.SyncRunRepository = (*SyncRunRepository)(nil)
