package schedule

import (
	"time"

	"praktika/internal/models"
)

// Interval is a half-open time span [Start, End). A session ending exactly
// when another starts does not collide; back-to-back scheduling is legal.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds the interval [start, start+duration).
func NewInterval(start time.Time, durationMinutes int) Interval {
	return Interval{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

// BookingInterval maps a booking onto its occupied interval.
func BookingInterval(b *models.Booking) Interval {
	return NewInterval(b.Start, b.DurationMinutes)
}

// Overlaps is the single place overlap math lives. Every conflict answer in
// the engine reduces to this comparison on absolute instants.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// Contains reports whether t falls inside the interval.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}
