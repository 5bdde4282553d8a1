package domain

import (
	"context"
	"time"

	"praktika/internal/models"
)

// SnapshotReader hands the engine a read of all bookings whose interval
// intersects [start, end). The snapshot is immutable for the duration of
// one evaluation; the engine never caches it across queries.
type SnapshotReader interface {
	GetBookingsForWindow(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

// Repository is the persistence surface for bookings and practice
// resources.
type Repository interface {
	SnapshotReader

	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	// CreateBookingWithConflictCheck re-runs the conflict check inside the
	// write transaction. The advisory report a user saw moments earlier can
	// be stale by commit time; the write is the enforcement point.
	CreateBookingWithConflictCheck(ctx context.Context, booking *models.Booking) error
	// CreateBooking skips the guard. Reserved for accepted double-booking
	// overrides.
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status string) error
	RescheduleBookingWithVersion(ctx context.Context, id, version int64, newStart time.Time, newDuration int) error
	GetBookingsByStaff(ctx context.Context, staffID int64, start, end time.Time) ([]*models.Booking, error)

	GetActiveRooms(ctx context.Context) ([]*models.Room, error)
	GetActiveStaff(ctx context.Context) ([]*models.Staff, error)
	GetServiceByID(ctx context.Context, id int64) (*models.Service, error)
	SetResources(staff []models.Staff, rooms []models.Room, services []models.Service)
}

// ReportStore keeps the last computed availability report per query
// fingerprint so a failed refresh can fall back to "showing previous
// result" instead of a blank state.
type ReportStore interface {
	GetReport(ctx context.Context, key string) (*models.AvailabilityReport, error)
	SetReport(ctx context.Context, key string, report *models.AvailabilityReport) error
	ClearReport(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker queues external schedule propagation (Sheets mirror).
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error
	EnqueueSyncSchedule(ctx context.Context, startDate, endDate time.Time) error
}

// SheetsWriter mirrors the practice schedule into a spreadsheet.
type SheetsWriter interface {
	UpdateScheduleSheet(ctx context.Context, startDate, endDate time.Time, dailyBookings map[string][]*models.Booking, rooms []*models.Room) error
}

// AvailabilityQuery carries the parameters of one availability check as
// received from the booking form.
type AvailabilityQuery struct {
	StaffID          int64
	RoomID           *int64
	Date             string // local calendar date, YYYY-MM-DD
	Time             string // local wall-clock, HH:MM
	DurationMinutes  int
	ServiceID        int64
	ExcludeBookingID int64
}

// AvailabilityService is the facade the booking form calls.
type AvailabilityService interface {
	Check(ctx context.Context, q AvailabilityQuery) (*models.AvailabilityReport, error)
	DaySlots(ctx context.Context, staffID int64, roomID *int64, date string, durationMinutes int, excludeID int64) ([]models.Slot, error)
}

// BookingService owns the booking lifecycle: create after an advisory
// check, status transitions, reschedules. Cancellation is a transition,
// never a delete.
type BookingService interface {
	CreateBooking(ctx context.Context, booking *models.Booking, override bool) (*models.ConflictReport, error)
	CancelBooking(ctx context.Context, id, version int64) error
	CompleteBooking(ctx context.Context, id, version int64) error
	MarkNoShow(ctx context.Context, id, version int64) error
	RescheduleBooking(ctx context.Context, id, version int64, newStart time.Time, newDuration int) (*models.ConflictReport, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
}
