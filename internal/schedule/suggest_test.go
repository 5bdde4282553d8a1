package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankNearestFirst(t *testing.T) {
	requested := mustTime(t, "2025-01-10T10:00:00Z")
	free := []time.Time{
		mustTime(t, "2025-01-10T09:00:00Z"),
		mustTime(t, "2025-01-10T09:30:00Z"),
		mustTime(t, "2025-01-10T11:00:00Z"),
	}

	ranked := Rank(requested, free, 5)
	require.Len(t, ranked, 3)

	// 09:30 is 30 min away; 11:00 and 09:00 are both 60 min away and the
	// later slot wins the tie.
	assert.Equal(t, "09:30", ranked[0].UTC().Format("15:04"))
	assert.Equal(t, "11:00", ranked[1].UTC().Format("15:04"))
	assert.Equal(t, "09:00", ranked[2].UTC().Format("15:04"))
}

func TestRankLimit(t *testing.T) {
	requested := mustTime(t, "2025-01-10T10:00:00Z")
	var free []time.Time
	for i := 1; i <= 10; i++ {
		free = append(free, requested.Add(time.Duration(i)*30*time.Minute))
	}

	ranked := Rank(requested, free, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, requested.Add(30*time.Minute), ranked[0])
	assert.Equal(t, requested.Add(60*time.Minute), ranked[1])
	assert.Equal(t, requested.Add(90*time.Minute), ranked[2])
}

func TestRankEmptyAndZeroLimit(t *testing.T) {
	requested := mustTime(t, "2025-01-10T10:00:00Z")

	assert.Nil(t, Rank(requested, nil, 3))
	assert.Nil(t, Rank(requested, []time.Time{requested.Add(time.Hour)}, 0))
}

func TestRankDoesNotMutateInput(t *testing.T) {
	requested := mustTime(t, "2025-01-10T10:00:00Z")
	free := []time.Time{
		requested.Add(2 * time.Hour),
		requested.Add(-time.Hour),
		requested.Add(30 * time.Minute),
	}
	original := append([]time.Time(nil), free...)

	_ = Rank(requested, free, 3)
	assert.Equal(t, original, free)
}
