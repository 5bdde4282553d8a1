package schedule

import (
	"testing"
	"time"

	"praktika/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyVerdicts(t *testing.T) {
	base := mustTime(t, "2025-01-10T10:00:00Z")

	staffBusy := testBooking(1, 7, roomID(1), base, 60, models.StatusScheduled)
	roomBusy := testBooking(2, 9, roomID(3), base, 50, models.StatusScheduled)

	tests := []struct {
		name      string
		candidate Candidate
		bookings  []*models.Booking
		verdict   string
	}{
		{
			name:      "no bookings",
			candidate: Candidate{StaffID: 7, RoomID: roomID(3), Start: base, DurationMinutes: 30},
			verdict:   models.VerdictNone,
		},
		{
			name:      "staff only",
			candidate: Candidate{StaffID: 7, RoomID: roomID(5), Start: base.Add(30 * time.Minute), DurationMinutes: 30},
			bookings:  []*models.Booking{staffBusy},
			verdict:   models.VerdictStaff,
		},
		{
			name:      "room only",
			candidate: Candidate{StaffID: 8, RoomID: roomID(3), Start: base, DurationMinutes: 30},
			bookings:  []*models.Booking{roomBusy},
			verdict:   models.VerdictRoom,
		},
		{
			name:      "both dimensions",
			candidate: Candidate{StaffID: 7, RoomID: roomID(3), Start: base, DurationMinutes: 30},
			bookings:  []*models.Booking{staffBusy, roomBusy},
			verdict:   models.VerdictBoth,
		},
		{
			name:      "back to back is none",
			candidate: Candidate{StaffID: 7, RoomID: roomID(1), Start: base.Add(time.Hour), DurationMinutes: 30},
			bookings:  []*models.Booking{staffBusy},
			verdict:   models.VerdictNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Classify(tt.candidate, tt.bookings)
			assert.Equal(t, tt.verdict, report.Verdict)
			assert.Equal(t, tt.verdict != models.VerdictNone, report.HasConflict)
		})
	}
}

func TestClassifyRoomlessCandidateNeverReportsRoomConflict(t *testing.T) {
	base := mustTime(t, "2025-01-10T10:00:00Z")
	bookings := []*models.Booking{
		testBooking(1, 9, roomID(3), base, 60, models.StatusScheduled),
	}

	// Remote session: no room requested, so only the staff dimension runs.
	report := Classify(Candidate{StaffID: 7, Start: base, DurationMinutes: 60}, bookings)
	assert.Equal(t, models.VerdictNone, report.Verdict)
	assert.Empty(t, report.RoomConflicts)
}

func TestClassifyCancelledExactMatchIsNotAConflict(t *testing.T) {
	base := mustTime(t, "2025-01-10T10:00:00Z")
	cancelled := testBooking(1, 7, roomID(3), base, 60, models.StatusCancelled)

	report := Classify(Candidate{StaffID: 7, RoomID: roomID(3), Start: base, DurationMinutes: 60},
		[]*models.Booking{cancelled})
	assert.False(t, report.HasConflict)
}

func TestClassifySymmetry(t *testing.T) {
	base := mustTime(t, "2025-01-10T10:00:00Z")

	a := testBooking(1, 7, nil, base, 60, models.StatusScheduled)
	b := testBooking(2, 7, nil, base.Add(30*time.Minute), 60, models.StatusScheduled)

	aVsB := Classify(Candidate{StaffID: a.StaffID, Start: a.Start, DurationMinutes: a.DurationMinutes, ExcludeID: a.ID},
		[]*models.Booking{b})
	bVsA := Classify(Candidate{StaffID: b.StaffID, Start: b.Start, DurationMinutes: b.DurationMinutes, ExcludeID: b.ID},
		[]*models.Booking{a})

	require.Equal(t, aVsB.HasConflict, bVsA.HasConflict)
	assert.Equal(t, models.VerdictStaff, aVsB.Verdict)
	assert.Equal(t, models.VerdictStaff, bVsA.Verdict)
}
