package models

import "time"

// ConflictReport is the engine's answer for one candidate booking.
type ConflictReport struct {
	Verdict        string      `json:"verdict"` // none, staff, room, both
	HasConflict    bool        `json:"has_conflict"`
	StaffConflicts []*Booking  `json:"staff_conflicts"`
	RoomConflicts  []*Booking  `json:"room_conflicts"`
	SuggestedTimes []time.Time `json:"suggested_times,omitempty"`
}

// Slot is one candidate start time in a day grid. Available is gated on
// the room only; a staff collision is carried separately so the UI can
// surface it as a non-blocking banner.
type Slot struct {
	Start         time.Time `json:"start"`
	Label         string    `json:"label"` // local wall-clock, HH:MM
	Available     bool      `json:"available"`
	StaffConflict bool      `json:"staff_conflict"`
}

// AvailabilityReport is the cached, displayable outcome of one query.
type AvailabilityReport struct {
	State      string          `json:"state"` // idle, checking, resolved, errored
	Sequence   uint64          `json:"sequence"`
	Report     *ConflictReport `json:"report,omitempty"`
	Stale      bool            `json:"stale"`
	Retryable  bool            `json:"retryable,omitempty"`
	Error      string          `json:"error,omitempty"`
	ComputedAt time.Time       `json:"computed_at"`
}
