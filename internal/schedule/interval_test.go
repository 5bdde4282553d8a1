package schedule

import (
	"testing"
	"time"

	"praktika/internal/models"

	"github.com/stretchr/testify/assert"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %s: %v", value, err)
	}
	return parsed
}

func TestIntervalOverlaps(t *testing.T) {
	base := mustTime(t, "2025-01-10T10:00:00Z")

	tests := []struct {
		name string
		a    Interval
		b    Interval
		want bool
	}{
		{
			name: "identical intervals overlap",
			a:    NewInterval(base, 60),
			b:    NewInterval(base, 60),
			want: true,
		},
		{
			name: "partial overlap",
			a:    NewInterval(base, 60),
			b:    NewInterval(base.Add(30*time.Minute), 60),
			want: true,
		},
		{
			name: "containment",
			a:    NewInterval(base, 120),
			b:    NewInterval(base.Add(30*time.Minute), 30),
			want: true,
		},
		{
			name: "back to back is not a conflict",
			a:    NewInterval(base, 60),
			b:    NewInterval(base.Add(60*time.Minute), 60),
			want: false,
		},
		{
			name: "touching from the other side",
			a:    NewInterval(base.Add(60*time.Minute), 60),
			b:    NewInterval(base, 60),
			want: false,
		},
		{
			name: "disjoint",
			a:    NewInterval(base, 30),
			b:    NewInterval(base.Add(2*time.Hour), 30),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestBookingInterval(t *testing.T) {
	start := mustTime(t, "2025-01-10T10:00:00Z")
	b := &models.Booking{Start: start, DurationMinutes: 50}

	iv := BookingInterval(b)
	assert.Equal(t, start, iv.Start)
	assert.Equal(t, start.Add(50*time.Minute), iv.End)
	assert.Equal(t, b.End(), iv.End)
}

func TestIntervalContains(t *testing.T) {
	start := mustTime(t, "2025-01-10T10:00:00Z")
	iv := NewInterval(start, 60)

	assert.True(t, iv.Contains(start))
	assert.True(t, iv.Contains(start.Add(59*time.Minute)))
	// End is exclusive.
	assert.False(t, iv.Contains(start.Add(60*time.Minute)))
	assert.False(t, iv.Contains(start.Add(-time.Minute)))
}
