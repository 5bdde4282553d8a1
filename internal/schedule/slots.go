package schedule

import (
	"fmt"
	"time"

	"praktika/internal/models"
)

// SlotRequest describes one day-grid computation.
type SlotRequest struct {
	Date            string // local calendar date, YYYY-MM-DD
	BusinessStart   string // local wall-clock, e.g. "08:00"
	BusinessEnd     string // exclusive bound, "24:00" allowed
	IntervalMinutes int
	DurationMinutes int
	StaffID         int64
	RoomID          *int64
	ExcludeID       int64
	Location        *time.Location
}

// GenerateSlots produces the ordered candidate start times for the day and
// marks each free or occupied. Candidates are laid out on the local
// wall-clock and converted to absolute instants one by one, so a DST shift
// inside the day cannot skew the grid. A slot whose end would pass the
// business close is dropped entirely, not returned as unavailable.
//
// Availability is gated on the room alone; a staff collision rides along in
// StaffConflict so callers can surface it without blocking the slot. This
// matches the booking form's room-first workflow.
func GenerateSlots(req SlotRequest, bookings []*models.Booking) ([]models.Slot, error) {
	if req.IntervalMinutes <= 0 {
		return nil, fmt.Errorf("interval minutes must be positive, got %d", req.IntervalMinutes)
	}
	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("duration minutes must be positive, got %d", req.DurationMinutes)
	}

	startMin, err := ParseWallClock(req.BusinessStart)
	if err != nil {
		return nil, err
	}
	endMin, err := ParseWallClock(req.BusinessEnd)
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation(dateLayout, req.Date, req.Location)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", req.Date, err)
	}

	// A duration longer than the business window yields an empty grid,
	// not an error.
	var slots []models.Slot
	for minute := startMin; minute+req.DurationMinutes <= endMin; minute += req.IntervalMinutes {
		start := time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, req.Location)

		candidate := Candidate{
			StaffID:         req.StaffID,
			RoomID:          req.RoomID,
			Start:           start,
			DurationMinutes: req.DurationMinutes,
			ExcludeID:       req.ExcludeID,
		}
		report := Classify(candidate, bookings)

		slots = append(slots, models.Slot{
			Start:         start,
			Label:         start.Format(todLayout),
			Available:     len(report.RoomConflicts) == 0,
			StaffConflict: len(report.StaffConflicts) > 0,
		})
	}
	return slots, nil
}

// FreeSlots filters a grid down to the start times fully free for both
// staff and room, the only instants eligible for suggestion ranking.
func FreeSlots(slots []models.Slot) []time.Time {
	var free []time.Time
	for _, s := range slots {
		if s.Available && !s.StaffConflict {
			free = append(free, s.Start)
		}
	}
	return free
}
