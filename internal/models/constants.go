package models

const (
	StatusScheduled   = "scheduled"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
	StatusNoShow      = "no_show"
	StatusRescheduled = "rescheduled"
)

const (
	// VerdictNone et al. classify a candidate booking against the day's
	// snapshot.
	VerdictNone  = "none"
	VerdictStaff = "staff"
	VerdictRoom  = "room"
	VerdictBoth  = "both"
)

const (
	// QueryIdle et al. are the states of one availability query.
	QueryIdle     = "idle"
	QueryChecking = "checking"
	QueryResolved = "resolved"
	QueryErrored  = "errored"
)

const (
	// DefaultBusinessStart/End bound the daily slot grid, local wall-clock.
	DefaultBusinessStart = "08:00"
	DefaultBusinessEnd   = "24:00"

	// DefaultSlotIntervalMinutes is the step between candidate start times.
	DefaultSlotIntervalMinutes = 30

	// DefaultDurationMinutes is the fallback session length when neither an
	// explicit override nor the service defines one.
	DefaultDurationMinutes = 50

	// DefaultSuggestionLimit caps alternative times offered on a conflict.
	DefaultSuggestionLimit = 3

	// SnapshotBufferDays widens the snapshot window on both sides of the
	// queried day so sessions crossing local midnight are still seen.
	SnapshotBufferDays = 1

	// DefaultReportTTL is how long a cached availability report lives in
	// Redis, in seconds.
	DefaultReportTTL = 15 * 60

	// DefaultMaxBookingDays is how far into the future a booking may be
	// placed.
	DefaultMaxBookingDays = 365

	// WorkerQueueSize is the sheets sync worker queue capacity.
	WorkerQueueSize = 1000

	// ReminderHour is the local hour at which staff digests go out.
	ReminderHour = 20
)

// LiveStatuses are the statuses that participate in conflict detection.
var LiveStatuses = []string{StatusScheduled, StatusCompleted}
