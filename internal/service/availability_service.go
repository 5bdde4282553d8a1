package service

import (
	"context"
	"fmt"
	"time"

	"praktika/internal/config"
	"praktika/internal/domain"
	"praktika/internal/metrics"
	"praktika/internal/models"
	"praktika/internal/schedule"

	"github.com/rs/zerolog"
)

// ValidationError rejects a malformed query before any engine computation
// and names the offending field. It is distinct from "no conflict".
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AvailabilityService is the facade the booking form calls. The engine
// underneath is pure; this layer owns validation, the snapshot fetch, the
// query sequence and the stale-report fallback.
type AvailabilityService struct {
	repo     domain.Repository
	reports  domain.ReportStore
	practice config.PracticeConfig
	loc      *time.Location
	state    QueryState
	logger   *zerolog.Logger
}

func NewAvailabilityService(repo domain.Repository, reports domain.ReportStore, practice config.PracticeConfig, loc *time.Location, logger *zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{
		repo:     repo,
		reports:  reports,
		practice: practice,
		loc:      loc,
		logger:   logger,
	}
}

// Check answers one availability query. Business conflicts are a normal
// resolved answer; only malformed input or a failed snapshot read are
// errors, and the latter is folded into the errored report rather than
// returned.
func (s *AvailabilityService) Check(ctx context.Context, q domain.AvailabilityQuery) (*models.AvailabilityReport, error) {
	seq := s.state.Next()

	duration, err := s.resolveDuration(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := validateQuery(q, duration); err != nil {
		return nil, err
	}

	start, err := schedule.LocalDateTimeToInstant(q.Date, q.Time, s.loc)
	if err != nil {
		return nil, &ValidationError{Field: "time", Reason: err.Error()}
	}

	key := queryFingerprint(q, duration)

	bookings, fetchErr := s.fetchSnapshot(ctx, q.Date)
	if fetchErr != nil {
		metrics.IncSnapshotFailure()
		s.logger.Error().Err(fetchErr).Str("date", q.Date).Msg("snapshot fetch failed")
		return s.erroredReport(ctx, key, seq, fetchErr), nil
	}

	candidate := schedule.Candidate{
		StaffID:         q.StaffID,
		RoomID:          q.RoomID,
		Start:           start,
		DurationMinutes: duration,
		ExcludeID:       q.ExcludeBookingID,
	}
	conflict := schedule.Classify(candidate, bookings)
	metrics.IncAvailabilityCheck(conflict.Verdict)

	if conflict.HasConflict {
		conflict.SuggestedTimes = s.suggest(q, duration, start, bookings)
	}

	report := &models.AvailabilityReport{
		State:      models.QueryResolved,
		Sequence:   seq,
		Report:     conflict,
		ComputedAt: time.Now(),
	}

	// A response superseded while it was being computed is discarded; the
	// newer query's answer owns the displayed state.
	if s.state.TryApply(seq) {
		if err := s.reports.SetReport(ctx, key, report); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache availability report")
		}
	}
	return report, nil
}

// DaySlots returns the day grid for a staff/room pair.
func (s *AvailabilityService) DaySlots(ctx context.Context, staffID int64, roomID *int64, date string, durationMinutes int, excludeID int64) ([]models.Slot, error) {
	if staffID == 0 {
		return nil, &ValidationError{Field: "staffId", Reason: "required"}
	}
	if date == "" {
		return nil, &ValidationError{Field: "date", Reason: "required"}
	}
	duration := schedule.ResolveDuration(durationMinutes, 0, s.practice.DefaultDurationMinutes)

	bookings, err := s.fetchSnapshot(ctx, date)
	if err != nil {
		metrics.IncSnapshotFailure()
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	return schedule.GenerateSlots(schedule.SlotRequest{
		Date:            date,
		BusinessStart:   s.practice.BusinessStart,
		BusinessEnd:     s.practice.BusinessEnd,
		IntervalMinutes: s.practice.SlotIntervalMinutes,
		DurationMinutes: duration,
		StaffID:         staffID,
		RoomID:          roomID,
		ExcludeID:       excludeID,
		Location:        s.loc,
	}, bookings)
}

// fetchSnapshot reads the booking window around the queried day, with one
// immediate retry before giving up.
func (s *AvailabilityService) fetchSnapshot(ctx context.Context, date string) ([]*models.Booking, error) {
	window, err := schedule.DayWindow(date, s.loc, s.practice.SnapshotBufferDays)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.GetBookingsForWindow(ctx, window.Start, window.End)
	if err == nil {
		return bookings, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	return s.repo.GetBookingsForWindow(ctx, window.Start, window.End)
}

// suggest re-runs the classifier per free slot for BOTH resources before
// anything reaches the ranker; a slot that merely looks free in the
// room-gated grid signal is not enough.
func (s *AvailabilityService) suggest(q domain.AvailabilityQuery, duration int, requested time.Time, bookings []*models.Booking) []time.Time {
	slots, err := schedule.GenerateSlots(schedule.SlotRequest{
		Date:            q.Date,
		BusinessStart:   s.practice.BusinessStart,
		BusinessEnd:     s.practice.BusinessEnd,
		IntervalMinutes: s.practice.SlotIntervalMinutes,
		DurationMinutes: duration,
		StaffID:         q.StaffID,
		RoomID:          q.RoomID,
		ExcludeID:       q.ExcludeBookingID,
		Location:        s.loc,
	}, bookings)
	if err != nil {
		s.logger.Warn().Err(err).Msg("generate slots for suggestions")
		return nil
	}

	return schedule.Rank(requested, schedule.FreeSlots(slots), s.practice.SuggestionLimit)
}

// erroredReport surfaces a snapshot failure as a retryable errored state,
// keeping the last known report attached and marked stale so the caller
// can show "previous result, refresh failed" instead of a blank page.
func (s *AvailabilityService) erroredReport(ctx context.Context, key string, seq uint64, fetchErr error) *models.AvailabilityReport {
	report := &models.AvailabilityReport{
		State:      models.QueryErrored,
		Sequence:   seq,
		Retryable:  true,
		Error:      fetchErr.Error(),
		ComputedAt: time.Now(),
	}

	if prior, err := s.reports.GetReport(ctx, key); err == nil && prior != nil && prior.Report != nil {
		report.Report = prior.Report
		report.Stale = true
	}
	return report
}

func (s *AvailabilityService) resolveDuration(ctx context.Context, q domain.AvailabilityQuery) (int, error) {
	serviceDuration := 0
	if q.ServiceID != 0 {
		svc, err := s.repo.GetServiceByID(ctx, q.ServiceID)
		if err != nil {
			return 0, &ValidationError{Field: "serviceId", Reason: "unknown service"}
		}
		serviceDuration = svc.DurationMinutes
	}
	return schedule.ResolveDuration(q.DurationMinutes, serviceDuration, s.practice.DefaultDurationMinutes), nil
}

func validateQuery(q domain.AvailabilityQuery, duration int) error {
	if q.StaffID == 0 {
		return &ValidationError{Field: "staffId", Reason: "required"}
	}
	if q.Date == "" {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	if q.Time == "" {
		return &ValidationError{Field: "time", Reason: "required"}
	}
	if duration <= 0 {
		return &ValidationError{Field: "durationMinutes", Reason: "must be positive"}
	}
	return nil
}

func queryFingerprint(q domain.AvailabilityQuery, duration int) string {
	roomRef := int64(0)
	if q.RoomID != nil {
		roomRef = *q.RoomID
	}
	return fmt.Sprintf("%d:%d:%s:%s:%d:%d", q.StaffID, roomRef, q.Date, q.Time, duration, q.ExcludeBookingID)
}
