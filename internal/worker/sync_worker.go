package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"praktika/internal/database"
	"praktika/internal/domain"
	"praktika/internal/models"
	"praktika/internal/schedule"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskUpsert       = "upsert"
	TaskUpdateStatus = "update_status"
	TaskSyncSchedule = "sync_schedule"
)

// syncPayload is persisted in SyncTask.Payload as JSON. Booking mutations
// carry the booking so the worker can derive the affected day without a
// second read; range syncs carry the date bounds.
type syncPayload struct {
	BookingID int64           `json:"booking_id,omitempty"`
	Booking   *models.Booking `json:"booking,omitempty"`
	Status    string          `json:"status,omitempty"`
	StartDate string          `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string          `json:"end_date,omitempty"`
}

// ScheduleSyncWorker mirrors booking mutations into the schedule
// spreadsheet. Tasks are persisted to the sync_queue table first for
// durability, then pushed to redis for fast pickup; the in-memory channel
// and the DB poll loop cover redis being down.
type ScheduleSyncWorker struct {
	db            *database.DB
	sheets        domain.SheetsWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	loc           *time.Location
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

func NewScheduleSyncWorker(db *database.DB, sheets domain.SheetsWriter, redisClient *redis.Client, retry RetryPolicy, loc *time.Location, logger *zerolog.Logger) *ScheduleSyncWorker {
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryPolicy()
	}

	return &ScheduleSyncWorker{
		db:            db,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry,
		loc:           loc,
		queue:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: "schedule_sync:queue",
		deadLetterKey: "schedule_sync:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueTask persists and schedules one booking mutation.
func (w *ScheduleSyncWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if bookingID == 0 && (booking == nil || booking.ID == 0) {
		return errors.New("booking id is required")
	}
	if bookingID == 0 {
		bookingID = booking.ID
	}

	return w.enqueue(ctx, taskType, bookingID, syncPayload{
		BookingID: bookingID,
		Booking:   booking,
		Status:    status,
	})
}

// EnqueueSyncSchedule schedules a full re-mirror of the date range.
func (w *ScheduleSyncWorker) EnqueueSyncSchedule(ctx context.Context, startDate, endDate time.Time) error {
	return w.enqueue(ctx, TaskSyncSchedule, 0, syncPayload{
		StartDate: startDate.In(w.loc).Format("2006-01-02"),
		EndDate:   endDate.In(w.loc).Format("2006-01-02"),
	})
}

func (w *ScheduleSyncWorker) enqueue(ctx context.Context, taskType string, bookingID int64, payload syncPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.SyncTask{
		TaskType:  taskType,
		BookingID: bookingID,
		Payload:   string(raw),
		Status:    "pending",
	}
	if err := w.db.CreateSyncTask(ctx, &task); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	if w.redis != nil {
		err := w.pushRedis(ctx, task)
		if err == nil {
			return nil
		}
		w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("redis push failed, using memory queue")
	}

	select {
	case w.queue <- task:
	default:
		// The poll loop will still find it in sync_queue.
		w.logger.Warn().Int64("task_id", task.ID).Msg("memory queue full, task left to polling")
	}
	return nil
}

// Start runs the consume loop until ctx is cancelled.
func (w *ScheduleSyncWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("schedule sync worker started")
	defer w.logger.Info().Msg("schedule sync worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if task, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &task)
			continue
		}

		if task, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &task)
			continue
		}

		tasks, err := w.db.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending sync tasks")
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}
		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *ScheduleSyncWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

func (w *ScheduleSyncWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case task := <-w.queue:
		return task, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *ScheduleSyncWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("redis BRPOP")
		}
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}

	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis sync task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *ScheduleSyncWorker) processTask(ctx context.Context, task *models.SyncTask) {
	var payload syncPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.handleTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.MarkSyncTaskDone(ctx, task.ID); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark sync task done")
	}
}

// handleTask re-mirrors the affected date range. Every task type reduces
// to "redraw these days": the sheet holds whole day grids, not single
// rows, so partial updates would drift.
func (w *ScheduleSyncWorker) handleTask(ctx context.Context, taskType string, payload syncPayload) error {
	switch taskType {
	case TaskUpsert, TaskUpdateStatus:
		booking := payload.Booking
		if booking == nil {
			loaded, err := w.db.GetBooking(ctx, payload.BookingID)
			if err != nil {
				return fmt.Errorf("load booking %d: %w", payload.BookingID, err)
			}
			booking = loaded
		}
		date, _ := schedule.InstantToLocal(booking.Start, w.loc)
		return w.mirrorRange(ctx, date, date)
	case TaskSyncSchedule:
		if payload.StartDate == "" || payload.EndDate == "" {
			return errors.New("date range missing")
		}
		return w.mirrorRange(ctx, payload.StartDate, payload.EndDate)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *ScheduleSyncWorker) mirrorRange(ctx context.Context, startDate, endDate string) error {
	startWindow, err := schedule.DayWindow(startDate, w.loc, 0)
	if err != nil {
		return err
	}
	endWindow, err := schedule.DayWindow(endDate, w.loc, 0)
	if err != nil {
		return err
	}
	if endWindow.End.Before(startWindow.Start) {
		return fmt.Errorf("invalid range %s..%s", startDate, endDate)
	}

	daily, err := w.db.GetDailyBookings(ctx, startWindow.Start, endWindow.End, w.loc)
	if err != nil {
		return fmt.Errorf("load daily bookings: %w", err)
	}
	rooms, err := w.db.GetActiveRooms(ctx)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}

	return w.sheets.UpdateScheduleSheet(ctx, startWindow.Start, endWindow.End, daily, rooms)
}

func (w *ScheduleSyncWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.Attempts + 1
	if attempt >= w.retryPolicy.MaxAttempts {
		w.failTask(ctx, task, cause)
		return
	}

	w.logger.Warn().Err(cause).Int64("task_id", task.ID).Int("attempt", attempt).Msg("sync task retry")
	if err := w.db.MarkSyncTaskRetry(ctx, task.ID, attempt); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark sync task retry")
	}
	w.sleepBackoff(ctx, attempt)
}

func (w *ScheduleSyncWorker) sleepBackoff(ctx context.Context, attempt int) {
	select {
	case <-ctx.Done():
	case <-time.After(w.retryPolicy.NextDelay(attempt)):
	}
}

func (w *ScheduleSyncWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	w.logger.Error().Err(cause).Int64("task_id", task.ID).Msg("sync task failed")
	if err := w.db.MarkSyncTaskFailed(ctx, task.ID, task.Attempts+1); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark sync task failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *ScheduleSyncWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *ScheduleSyncWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("deadletter push")
	}
}
