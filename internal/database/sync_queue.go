package database

import (
	"context"
	"fmt"
	"time"

	"praktika/internal/models"
)

func (db *DB) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	query := `INSERT INTO sync_queue (task_type, booking_id, payload, status, attempts, created_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		task.TaskType,
		task.BookingID,
		task.Payload,
		task.Status,
		task.Attempts,
		now,
	)
	if err != nil {
		return fmt.Errorf("create sync task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now

	return nil
}

func (db *DB) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	query := `SELECT id, task_type, booking_id, payload, status, attempts, created_at, processed_at
              FROM sync_queue
              WHERE status = 'pending'
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.SyncTask
	for rows.Next() {
		var t models.SyncTask
		if err := rows.Scan(&t.ID, &t.TaskType, &t.BookingID, &t.Payload, &t.Status, &t.Attempts, &t.CreatedAt, &t.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan sync task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) MarkSyncTaskDone(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'done', processed_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("mark sync task done: %w", err)
	}
	return nil
}

// MarkSyncTaskRetry bumps the attempt counter and leaves the task pending
// so the poll loop picks it up again.
func (db *DB) MarkSyncTaskRetry(ctx context.Context, id int64, attempts int) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'pending', attempts = ? WHERE id = ?`, attempts, id)
	if err != nil {
		return fmt.Errorf("mark sync task retry: %w", err)
	}
	return nil
}

func (db *DB) MarkSyncTaskFailed(ctx context.Context, id int64, attempts int) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'failed', attempts = ?, processed_at = ? WHERE id = ?`, attempts, now, id)
	if err != nil {
		return fmt.Errorf("mark sync task failed: %w", err)
	}
	return nil
}
