package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"praktika/internal/config"
	"praktika/internal/database"
	"praktika/internal/domain"
	"praktika/internal/models"
	"praktika/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo serves a fixed booking set and can be flipped into failure mode
// to exercise the stale-report fallback.
type fakeRepo struct {
	bookings []*models.Booking
	services map[int64]*models.Service
	fail     bool
	calls    int
}

func (r *fakeRepo) GetBookingsForWindow(_ context.Context, start, end time.Time) ([]*models.Booking, error) {
	r.calls++
	if r.fail {
		return nil, errors.New("storage unavailable")
	}
	var out []*models.Booking
	for _, b := range r.bookings {
		if b.Start.Before(end) && b.End().After(start) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetBooking(context.Context, int64) (*models.Booking, error) {
	return nil, database.ErrNotFound
}

func (r *fakeRepo) CreateBookingWithConflictCheck(context.Context, *models.Booking) error {
	return nil
}

func (r *fakeRepo) CreateBooking(context.Context, *models.Booking) error { return nil }

func (r *fakeRepo) UpdateBookingStatusWithVersion(context.Context, int64, int64, string) error {
	return nil
}

func (r *fakeRepo) RescheduleBookingWithVersion(context.Context, int64, int64, time.Time, int) error {
	return nil
}

func (r *fakeRepo) GetBookingsByStaff(context.Context, int64, time.Time, time.Time) ([]*models.Booking, error) {
	return nil, nil
}

func (r *fakeRepo) GetActiveRooms(context.Context) ([]*models.Room, error) { return nil, nil }

func (r *fakeRepo) GetActiveStaff(context.Context) ([]*models.Staff, error) { return nil, nil }

func (r *fakeRepo) GetServiceByID(_ context.Context, id int64) (*models.Service, error) {
	if svc, ok := r.services[id]; ok {
		return svc, nil
	}
	return nil, database.ErrNotFound
}

func (r *fakeRepo) SetResources([]models.Staff, []models.Room, []models.Service) {}

func testPractice() config.PracticeConfig {
	return config.PracticeConfig{
		Timezone:               "Europe/Berlin",
		BusinessStart:          "08:00",
		BusinessEnd:            "18:00",
		SlotIntervalMinutes:    30,
		DefaultDurationMinutes: 50,
		SuggestionLimit:        3,
		SnapshotBufferDays:     1,
	}
}

func setupAvailability(t *testing.T, repo *fakeRepo) *AvailabilityService {
	t.Helper()
	practice := testPractice()
	loc, err := practice.Location()
	require.NoError(t, err)
	logger := zerolog.New(io.Discard)
	return NewAvailabilityService(repo, repository.NewMemoryReportStore(time.Minute), practice, loc, &logger)
}

func berlin(t *testing.T, date, tod string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	ts, err := time.ParseInLocation("2006-01-02 15:04", date+" "+tod, loc)
	require.NoError(t, err)
	return ts.UTC()
}

func fixture(t *testing.T) *fakeRepo {
	room1 := int64(1)
	return &fakeRepo{
		bookings: []*models.Booking{
			{ID: 1, StaffID: 7, RoomID: &room1, Start: berlin(t, "2026-09-14", "10:00"), DurationMinutes: 60, Status: models.StatusScheduled},
			{ID: 2, StaffID: 8, RoomID: nil, Start: berlin(t, "2026-09-14", "14:00"), DurationMinutes: 50, Status: models.StatusCancelled},
		},
		services: map[int64]*models.Service{
			1: {ID: 1, Name: "Therapy 60", DurationMinutes: 60, IsActive: true},
		},
	}
}

func TestAvailabilityService_Check_Validation(t *testing.T) {
	svc := setupAvailability(t, fixture(t))

	tests := []struct {
		name  string
		query domain.AvailabilityQuery
		field string
	}{
		{"missing staff", domain.AvailabilityQuery{Date: "2026-09-14", Time: "10:30"}, "staffId"},
		{"missing date", domain.AvailabilityQuery{StaffID: 7, Time: "10:30"}, "date"},
		{"missing time", domain.AvailabilityQuery{StaffID: 7, Date: "2026-09-14"}, "time"},
		{"negative duration", domain.AvailabilityQuery{StaffID: 7, Date: "2026-09-14", Time: "10:30", DurationMinutes: -5}, "durationMinutes"},
		{"unknown service", domain.AvailabilityQuery{StaffID: 7, Date: "2026-09-14", Time: "10:30", ServiceID: 99}, "serviceId"},
		{"malformed time", domain.AvailabilityQuery{StaffID: 7, Date: "2026-09-14", Time: "25:61"}, "time"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Check(context.Background(), tc.query)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestAvailabilityService_Check_StaffConflict(t *testing.T) {
	repo := fixture(t)
	svc := setupAvailability(t, repo)

	// Same practitioner, 10:30 for 30 minutes, overlapping the 10:00-11:00
	// scheduled session.
	report, err := svc.Check(context.Background(), domain.AvailabilityQuery{
		StaffID:         7,
		Date:            "2026-09-14",
		Time:            "10:30",
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	assert.Equal(t, models.QueryResolved, report.State)
	require.NotNil(t, report.Report)
	assert.True(t, report.Report.HasConflict)
	assert.Equal(t, models.VerdictStaff, report.Report.Verdict)
	require.Len(t, report.Report.StaffConflicts, 1)
	assert.Equal(t, int64(1), report.Report.StaffConflicts[0].ID)
	assert.NotEmpty(t, report.Report.SuggestedTimes)
}

func TestAvailabilityService_Check_CancelledDoesNotConflict(t *testing.T) {
	svc := setupAvailability(t, fixture(t))

	// Staff 8's only session that day is cancelled.
	report, err := svc.Check(context.Background(), domain.AvailabilityQuery{
		StaffID:         8,
		Date:            "2026-09-14",
		Time:            "14:00",
		DurationMinutes: 50,
	})
	require.NoError(t, err)

	assert.False(t, report.Report.HasConflict)
	assert.Equal(t, models.VerdictNone, report.Report.Verdict)
	assert.Empty(t, report.Report.SuggestedTimes)
}

func TestAvailabilityService_Check_RoomConflict(t *testing.T) {
	svc := setupAvailability(t, fixture(t))

	// Different practitioner wants room 1 while staff 7 occupies it.
	room1 := int64(1)
	report, err := svc.Check(context.Background(), domain.AvailabilityQuery{
		StaffID:         8,
		RoomID:          &room1,
		Date:            "2026-09-14",
		Time:            "10:00",
		DurationMinutes: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, models.VerdictRoom, report.Report.Verdict)
	assert.Empty(t, report.Report.StaffConflicts)
	require.Len(t, report.Report.RoomConflicts, 1)
}

func TestAvailabilityService_Check_ServiceDuration(t *testing.T) {
	svc := setupAvailability(t, fixture(t))

	// Service 1 is 60 minutes, so a 10:59 start still brushes nothing but
	// a 10:30 start for staff 7 overlaps their 10:00-11:00 session even
	// though no explicit duration was supplied.
	report, err := svc.Check(context.Background(), domain.AvailabilityQuery{
		StaffID:   7,
		Date:      "2026-09-14",
		Time:      "10:30",
		ServiceID: 1,
	})
	require.NoError(t, err)
	assert.True(t, report.Report.HasConflict)
}

func TestAvailabilityService_Check_BackToBackIsFree(t *testing.T) {
	svc := setupAvailability(t, fixture(t))

	report, err := svc.Check(context.Background(), domain.AvailabilityQuery{
		StaffID:         7,
		Date:            "2026-09-14",
		Time:            "11:00",
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.False(t, report.Report.HasConflict)
}

func TestAvailabilityService_Check_StaleFallback(t *testing.T) {
	repo := fixture(t)
	svc := setupAvailability(t, repo)
	query := domain.AvailabilityQuery{
		StaffID:         7,
		Date:            "2026-09-14",
		Time:            "10:30",
		DurationMinutes: 30,
	}

	first, err := svc.Check(context.Background(), query)
	require.NoError(t, err)
	require.Equal(t, models.QueryResolved, first.State)

	repo.fail = true

	second, err := svc.Check(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, models.QueryErrored, second.State)
	assert.True(t, second.Retryable)
	assert.NotEmpty(t, second.Error)
	assert.True(t, second.Stale)
	require.NotNil(t, second.Report, "last known report should ride along")
	assert.Equal(t, models.VerdictStaff, second.Report.Verdict)
	assert.Greater(t, second.Sequence, first.Sequence)
}

func TestAvailabilityService_Check_ErroredWithoutPrior(t *testing.T) {
	repo := fixture(t)
	repo.fail = true
	svc := setupAvailability(t, repo)

	report, err := svc.Check(context.Background(), domain.AvailabilityQuery{
		StaffID:         7,
		Date:            "2026-09-14",
		Time:            "10:30",
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	assert.Equal(t, models.QueryErrored, report.State)
	assert.True(t, report.Retryable)
	assert.False(t, report.Stale)
	assert.Nil(t, report.Report)
	// One retry before surfacing the failure.
	assert.Equal(t, 2, repo.calls)
}

func TestAvailabilityService_DaySlots(t *testing.T) {
	svc := setupAvailability(t, fixture(t))

	room1 := int64(1)
	slots, err := svc.DaySlots(context.Background(), 8, &room1, "2026-09-14", 50, 0)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	byLabel := make(map[string]models.Slot, len(slots))
	for _, slot := range slots {
		byLabel[slot.Label] = slot
	}

	// Room 1 is taken 10:00-11:00 by staff 7.
	assert.False(t, byLabel["10:30"].Available)
	assert.True(t, byLabel["11:00"].Available)
	assert.False(t, byLabel["10:30"].StaffConflict)
}

func TestAvailabilityService_DaySlots_Validation(t *testing.T) {
	svc := setupAvailability(t, fixture(t))

	_, err := svc.DaySlots(context.Background(), 0, nil, "2026-09-14", 50, 0)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "staffId", verr.Field)
}

func TestAvailabilityService_Check_Suggestions(t *testing.T) {
	// Staff 7 fully booked 09:00-12:00; a 10:00 request should pull the
	// nearest free starts, preferring the later slot on equal distance.
	room1 := int64(1)
	repo := &fakeRepo{
		bookings: []*models.Booking{
			{ID: 1, StaffID: 7, RoomID: &room1, Start: berlin(t, "2026-09-14", "09:00"), DurationMinutes: 180, Status: models.StatusScheduled},
		},
	}
	svc := setupAvailability(t, repo)

	report, err := svc.Check(context.Background(), domain.AvailabilityQuery{
		StaffID:         7,
		Date:            "2026-09-14",
		Time:            "10:00",
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.True(t, report.Report.HasConflict)

	// 08:00 and 12:00 are both 120 minutes away; the future slot ranks
	// first on the tie.
	suggested := report.Report.SuggestedTimes
	require.Len(t, suggested, 3)
	assert.Equal(t, berlin(t, "2026-09-14", "12:00"), suggested[0].UTC())
	assert.Equal(t, berlin(t, "2026-09-14", "08:00"), suggested[1].UTC())
	assert.Equal(t, berlin(t, "2026-09-14", "12:30"), suggested[2].UTC())
}
