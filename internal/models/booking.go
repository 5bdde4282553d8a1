package models

import "time"

type Booking struct {
	ID              int64     `json:"id"`
	ClientID        int64     `json:"client_id"`
	ClientName      string    `json:"client_name"`
	StaffID         int64     `json:"staff_id"`
	RoomID          *int64    `json:"room_id,omitempty"` // nil for remote/phone sessions
	ServiceID       int64     `json:"service_id"`
	Start           time.Time `json:"start"` // absolute instant, stored UTC
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"` // scheduled, completed, cancelled, no_show, rescheduled
	Comment         string    `json:"comment"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int64     `json:"version"`
}

// End returns the exclusive end of the booking interval.
func (b *Booking) End() time.Time {
	return b.Start.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// IsLive reports whether the booking occupies its resources for
// conflict purposes. Cancelled bookings free the slot; no-shows and
// rescheduled bookings are historical.
func (b *Booking) IsLive() bool {
	return b.Status == StatusScheduled || b.Status == StatusCompleted
}

// HasRoom reports whether the booking occupies a room at all.
func (b *Booking) HasRoom() bool {
	return b.RoomID != nil && *b.RoomID != 0
}
