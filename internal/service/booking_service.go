package service

import (
	"context"
	"errors"
	"time"

	"praktika/internal/database"
	"praktika/internal/domain"
	"praktika/internal/events"
	"praktika/internal/metrics"
	"praktika/internal/models"
	"praktika/internal/schedule"

	"github.com/rs/zerolog"
)

// BookingService owns the booking lifecycle. The engine's conflict report
// is advisory; the repository's transactional guard is the enforcement
// point, because a report computed moments earlier can be stale by commit
// time.
type BookingService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	practice   practicePolicy
	loc        *time.Location
	logger     *zerolog.Logger
}

type practicePolicy struct {
	MaxBookingDays         int
	DefaultDurationMinutes int
	SnapshotBufferDays     int
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, loc *time.Location, maxBookingDays, defaultDuration, snapshotBufferDays int, logger *zerolog.Logger) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = models.DefaultMaxBookingDays
	}
	if defaultDuration <= 0 {
		defaultDuration = models.DefaultDurationMinutes
	}
	if snapshotBufferDays <= 0 {
		snapshotBufferDays = models.SnapshotBufferDays
	}
	return &BookingService{
		repo:       repo,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		practice: practicePolicy{
			MaxBookingDays:         maxBookingDays,
			DefaultDurationMinutes: defaultDuration,
			SnapshotBufferDays:     snapshotBufferDays,
		},
		loc:    loc,
		logger: logger,
	}
}

// ValidateBookingStart rejects starts in the past or beyond the allowed
// horizon.
func (s *BookingService) ValidateBookingStart(start time.Time) error {
	if start.Before(time.Now().Add(-time.Minute)) {
		return database.ErrPastDate
	}
	if start.After(time.Now().AddDate(0, 0, s.practice.MaxBookingDays)) {
		return database.ErrDateTooFar
	}
	return nil
}

// CreateBooking runs the advisory conflict check and commits. A business
// conflict without override returns the report with no booking created; an
// override records the event and proceeds to the guard, which may still
// reject a slot taken in the meantime.
func (s *BookingService) CreateBooking(ctx context.Context, booking *models.Booking, override bool) (*models.ConflictReport, error) {
	booking.DurationMinutes = s.effectiveDuration(ctx, booking)
	if booking.DurationMinutes <= 0 {
		return nil, database.ErrInvalidDuration
	}
	if err := s.ValidateBookingStart(booking.Start); err != nil {
		return nil, err
	}
	if booking.Status == "" {
		booking.Status = models.StatusScheduled
	}

	report, err := s.classify(ctx, booking, 0)
	if err != nil {
		return nil, err
	}

	if report.HasConflict && !override {
		return report, nil
	}

	// An accepted override bypasses the transactional guard, otherwise the
	// guard would just reject the double-booking the user already approved.
	if report.HasConflict {
		if err := s.repo.CreateBooking(ctx, booking); err != nil {
			return report, err
		}
		s.publishEvent(events.EventBookingConflictOverride, booking, report.Verdict)
	} else if err := s.repo.CreateBookingWithConflictCheck(ctx, booking); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			metrics.IncCommitConflict()
		}
		return report, err
	}

	s.publishEvent(events.EventBookingCreated, booking, "")
	s.enqueueSync(ctx, booking, "upsert")
	return report, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, id, version int64) error {
	return s.transition(ctx, id, version, models.StatusCancelled, events.EventBookingCancelled)
}

func (s *BookingService) CompleteBooking(ctx context.Context, id, version int64) error {
	return s.transition(ctx, id, version, models.StatusCompleted, events.EventBookingCompleted)
}

func (s *BookingService) MarkNoShow(ctx context.Context, id, version int64) error {
	return s.transition(ctx, id, version, models.StatusNoShow, events.EventBookingNoShow)
}

// RescheduleBooking re-runs the engine for the new interval, excluding the
// booking itself, before moving it.
func (s *BookingService) RescheduleBooking(ctx context.Context, id, version int64, newStart time.Time, newDuration int) (*models.ConflictReport, error) {
	current, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if newDuration <= 0 {
		newDuration = current.DurationMinutes
	}
	if err := s.ValidateBookingStart(newStart); err != nil {
		return nil, err
	}

	moved := *current
	moved.Start = newStart
	moved.DurationMinutes = newDuration

	report, err := s.classify(ctx, &moved, id)
	if err != nil {
		return nil, err
	}
	if report.HasConflict {
		return report, nil
	}

	if err := s.repo.RescheduleBookingWithVersion(ctx, id, version, newStart, newDuration); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			metrics.IncCommitConflict()
		}
		return report, err
	}

	updated, err := s.repo.GetBooking(ctx, id)
	if err == nil {
		s.publishEvent(events.EventBookingRescheduled, updated, "")
		s.enqueueSync(ctx, updated, "upsert")
	}
	return report, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) transition(ctx context.Context, id, version int64, status, eventType string) error {
	if err := s.repo.UpdateBookingStatusWithVersion(ctx, id, version, status); err != nil {
		return err
	}

	booking, err := s.repo.GetBooking(ctx, id)
	if err == nil {
		s.publishEvent(eventType, booking, "")
		s.enqueueSync(ctx, booking, "update_status")
	}
	return nil
}

func (s *BookingService) classify(ctx context.Context, booking *models.Booking, excludeID int64) (*models.ConflictReport, error) {
	date, _ := schedule.InstantToLocal(booking.Start, s.loc)
	window, err := schedule.DayWindow(date, s.loc, s.practice.SnapshotBufferDays)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.GetBookingsForWindow(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	return schedule.Classify(schedule.Candidate{
		StaffID:         booking.StaffID,
		RoomID:          booking.RoomID,
		Start:           booking.Start,
		DurationMinutes: booking.DurationMinutes,
		ExcludeID:       excludeID,
	}, bookings), nil
}

func (s *BookingService) effectiveDuration(ctx context.Context, booking *models.Booking) int {
	serviceDuration := 0
	if booking.ServiceID != 0 {
		if svc, err := s.repo.GetServiceByID(ctx, booking.ServiceID); err == nil {
			serviceDuration = svc.DurationMinutes
		}
	}
	return schedule.ResolveDuration(booking.DurationMinutes, serviceDuration, s.practice.DefaultDurationMinutes)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, verdict string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:       booking.ID,
		ClientID:        booking.ClientID,
		ClientName:      booking.ClientName,
		StaffID:         booking.StaffID,
		RoomID:          booking.RoomID,
		Start:           booking.Start,
		DurationMinutes: booking.DurationMinutes,
		Status:          booking.Status,
		Verdict:         verdict,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, taskType string) {
	if s.syncWorker == nil {
		return
	}

	var status string
	if taskType == "update_status" {
		status = booking.Status
	}

	if err := s.syncWorker.EnqueueTask(ctx, taskType, booking.ID, booking, status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("sync enqueue error")
	}
}
