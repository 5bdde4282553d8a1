package schedule

import (
	"testing"
	"time"

	"praktika/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomID(id int64) *int64 { return &id }

func testBooking(id, staffID int64, room *int64, start time.Time, duration int, status string) *models.Booking {
	return &models.Booking{
		ID:              id,
		StaffID:         staffID,
		RoomID:          room,
		Start:           start,
		DurationMinutes: duration,
		Status:          status,
	}
}

func TestFindOverlapsStaff(t *testing.T) {
	base := mustTime(t, "2025-01-10T10:00:00Z")
	bookings := []*models.Booking{
		testBooking(1, 7, nil, base, 60, models.StatusScheduled),
		testBooking(2, 7, nil, base.Add(2*time.Hour), 60, models.StatusScheduled),
		testBooking(3, 8, nil, base, 60, models.StatusScheduled), // other staff
	}

	candidate := NewInterval(base.Add(30*time.Minute), 30)
	hits := FindOverlaps(candidate, ResourceStaff, 7, bookings, 0)

	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].ID)
}

func TestFindOverlapsExcludedStatuses(t *testing.T) {
	base := mustTime(t, "2025-01-10T10:00:00Z")
	candidate := NewInterval(base, 60)

	for _, status := range []string{models.StatusCancelled, models.StatusNoShow, models.StatusRescheduled} {
		bookings := []*models.Booking{testBooking(1, 7, nil, base, 60, status)}
		hits := FindOverlaps(candidate, ResourceStaff, 7, bookings, 0)
		assert.Empty(t, hits, "status %s must not conflict", status)
	}

	// Completed sessions still occupy their slot.
	bookings := []*models.Booking{testBooking(1, 7, nil, base, 60, models.StatusCompleted)}
	hits := FindOverlaps(candidate, ResourceStaff, 7, bookings, 0)
	assert.Len(t, hits, 1)
}

func TestFindOverlapsSelfExclusion(t *testing.T) {
	base := mustTime(t, "2025-01-10T10:00:00Z")
	bookings := []*models.Booking{
		testBooking(42, 7, nil, base, 60, models.StatusScheduled),
	}

	// Editing booking 42 against a snapshot that includes it.
	hits := FindOverlaps(NewInterval(base, 60), ResourceStaff, 7, bookings, 42)
	assert.Empty(t, hits)

	// Without the exclusion it conflicts with itself.
	hits = FindOverlaps(NewInterval(base, 60), ResourceStaff, 7, bookings, 0)
	assert.Len(t, hits, 1)
}

func TestFindOverlapsRoomlessBookingsSkipRoomCheck(t *testing.T) {
	base := mustTime(t, "2025-01-10T10:00:00Z")
	bookings := []*models.Booking{
		testBooking(1, 7, nil, base, 60, models.StatusScheduled), // remote session
		testBooking(2, 8, roomID(3), base, 60, models.StatusScheduled),
	}

	hits := FindOverlaps(NewInterval(base, 60), ResourceRoom, 3, bookings, 0)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(2), hits[0].ID)
}

func TestFindOverlapsOrderedByStart(t *testing.T) {
	base := mustTime(t, "2025-01-10T08:00:00Z")
	bookings := []*models.Booking{
		testBooking(3, 7, nil, base.Add(3*time.Hour), 60, models.StatusScheduled),
		testBooking(1, 7, nil, base, 60, models.StatusScheduled),
		testBooking(2, 7, nil, base.Add(time.Hour), 60, models.StatusScheduled),
	}

	hits := FindOverlaps(NewInterval(base, 300), ResourceStaff, 7, bookings, 0)
	require.Len(t, hits, 3)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.Equal(t, int64(2), hits[1].ID)
	assert.Equal(t, int64(3), hits[2].ID)
}
