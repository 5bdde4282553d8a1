package database

import (
	"context"
	"io"
	"testing"
	"time"

	"praktika/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	db.SetResources(
		[]models.Staff{
			{ID: 7, Name: "Dr. Weber", IsActive: true},
			{ID: 8, Name: "Dr. Fischer", IsActive: true},
			{ID: 9, Name: "Dr. Braun", IsActive: false},
		},
		[]models.Room{
			{ID: 1, Name: "Room A", IsActive: true, SortOrder: 2},
			{ID: 3, Name: "Room B", IsActive: true, SortOrder: 1},
		},
		[]models.Service{
			{ID: 1, Name: "Initial consultation", DurationMinutes: 60, IsActive: true},
			{ID: 2, Name: "Follow-up", DurationMinutes: 50, IsActive: true},
		},
	)
	return db
}

func TestResourceAccessors(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	staff, err := db.GetActiveStaff(ctx)
	require.NoError(t, err)
	require.Len(t, staff, 2) // inactive staff filtered

	rooms, err := db.GetActiveRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	// Sorted by sort order, not id.
	assert.Equal(t, int64(3), rooms[0].ID)
	assert.Equal(t, int64(1), rooms[1].ID)

	svc, err := db.GetServiceByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 50, svc.DurationMinutes)

	_, err = db.GetServiceByID(ctx, 99)
	assert.Error(t, err)
}

func TestGetDailyBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	day1 := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)

	for _, start := range []time.Time{day1, day1.Add(2 * time.Hour), day2} {
		b := &models.Booking{
			ClientID: 1, ClientName: "Client", StaffID: 7,
			Start: start, DurationMinutes: 50, Status: models.StatusScheduled,
		}
		require.NoError(t, db.CreateBookingWithConflictCheck(ctx, b))
	}

	daily, err := db.GetDailyBookings(ctx,
		day1.Add(-time.Hour), day2.Add(24*time.Hour), time.UTC)
	require.NoError(t, err)
	assert.Len(t, daily["2025-01-10"], 2)
	assert.Len(t, daily["2025-01-11"], 1)
}
