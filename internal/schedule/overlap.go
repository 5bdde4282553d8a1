package schedule

import (
	"sort"

	"praktika/internal/models"
)

// ResourceKind selects which booking dimension an overlap scan inspects.
type ResourceKind string

const (
	ResourceStaff ResourceKind = "staff"
	ResourceRoom  ResourceKind = "room"
)

// FindOverlaps returns the live bookings on the given resource whose
// intervals overlap the candidate, ascending by start time. The booking
// identified by excludeID is skipped so an edit never conflicts with
// itself. Pure function; the snapshot is never mutated.
func FindOverlaps(candidate Interval, kind ResourceKind, resourceID int64, bookings []*models.Booking, excludeID int64) []*models.Booking {
	var hits []*models.Booking
	for _, b := range bookings {
		if !b.IsLive() {
			continue
		}
		if excludeID != 0 && b.ID == excludeID {
			continue
		}
		if !occupiesResource(b, kind, resourceID) {
			continue
		}
		if candidate.Overlaps(BookingInterval(b)) {
			hits = append(hits, b)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Start.Equal(hits[j].Start) {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Start.Before(hits[j].Start)
	})
	return hits
}

func occupiesResource(b *models.Booking, kind ResourceKind, resourceID int64) bool {
	switch kind {
	case ResourceStaff:
		return b.StaffID == resourceID
	case ResourceRoom:
		// Room-less (remote) sessions never occupy any room.
		return b.HasRoom() && *b.RoomID == resourceID
	default:
		return false
	}
}
