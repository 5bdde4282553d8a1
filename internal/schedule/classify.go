package schedule

import (
	"time"

	"praktika/internal/models"
)

// Candidate is a proposed booking about to be checked against a snapshot.
type Candidate struct {
	StaffID         int64
	RoomID          *int64 // nil for remote sessions
	Start           time.Time
	DurationMinutes int
	ExcludeID       int64 // booking being edited, 0 for new proposals
}

// Interval returns the candidate's occupied interval.
func (c Candidate) Interval() Interval {
	return NewInterval(c.Start, c.DurationMinutes)
}

// Classify runs the overlap detector per resource dimension and folds the
// results into a single verdict. Suggestions are filled by the caller.
// A business conflict is a normal answer here, never an error.
func Classify(c Candidate, bookings []*models.Booking) *models.ConflictReport {
	candidate := c.Interval()

	staffHits := FindOverlaps(candidate, ResourceStaff, c.StaffID, bookings, c.ExcludeID)

	var roomHits []*models.Booking
	if c.RoomID != nil && *c.RoomID != 0 {
		roomHits = FindOverlaps(candidate, ResourceRoom, *c.RoomID, bookings, c.ExcludeID)
	}

	report := &models.ConflictReport{
		Verdict:        verdict(len(staffHits) > 0, len(roomHits) > 0),
		StaffConflicts: staffHits,
		RoomConflicts:  roomHits,
	}
	report.HasConflict = report.Verdict != models.VerdictNone
	return report
}

func verdict(staff, room bool) string {
	switch {
	case staff && room:
		return models.VerdictBoth
	case staff:
		return models.VerdictStaff
	case room:
		return models.VerdictRoom
	default:
		return models.VerdictNone
	}
}
