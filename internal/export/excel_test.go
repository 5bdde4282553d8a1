package export

import (
	"context"
	"io"
	"testing"
	"time"

	"praktika/internal/database"
	"praktika/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setupExporter(t *testing.T) (*Exporter, *database.DB) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	db.SetResources(
		[]models.Staff{{ID: 7, Name: "Dr. Weber", IsActive: true}},
		[]models.Room{{ID: 1, Name: "Room A", IsActive: true, SortOrder: 1}},
		[]models.Service{{ID: 1, Name: "Follow-up", DurationMinutes: 50, IsActive: true}},
	)

	return NewExporter(db, t.TempDir(), time.UTC, &logger), db
}

func TestScheduleToExcel(t *testing.T) {
	exporter, db := setupExporter(t)
	ctx := context.Background()

	room := int64(1)
	booking := &models.Booking{
		ClientID:        100,
		ClientName:      "Anna Keller",
		StaffID:         7,
		RoomID:          &room,
		ServiceID:       1,
		Start:           time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 50,
		Status:          models.StatusScheduled,
		Comment:         "first session",
	}
	require.NoError(t, db.CreateBookingWithConflictCheck(ctx, booking))

	start := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC)

	path, err := exporter.ScheduleToExcel(ctx, start, end)
	require.NoError(t, err)
	require.FileExists(t, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "14.09.2026")

	// Row 2 holds the day headers, row 3 is Room A, row 4 is Remote.
	header, err := f.GetCellValue(sheetName, "B2")
	require.NoError(t, err)
	assert.Contains(t, header, "14.09")

	roomLabel, err := f.GetCellValue(sheetName, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Room A", roomLabel)

	cell, err := f.GetCellValue(sheetName, "B3")
	require.NoError(t, err)
	assert.Contains(t, cell, "10:00-10:50 Anna Keller")
	assert.Contains(t, cell, "first session")

	remoteLabel, err := f.GetCellValue(sheetName, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Remote", remoteLabel)
}

func TestScheduleToExcel_EmptyRange(t *testing.T) {
	exporter, _ := setupExporter(t)

	start := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	path, err := exporter.ScheduleToExcel(context.Background(), start, end)
	require.NoError(t, err)
	require.FileExists(t, path)
}
