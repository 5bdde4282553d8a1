package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"praktika/internal/models"
)

// Resources are seeded from config and held in memory; only bookings live
// in sqlite.

func (db *DB) GetActiveStaff(ctx context.Context) ([]*models.Staff, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var staff []*models.Staff
	for _, s := range db.staff {
		if !s.IsActive {
			continue
		}
		copied := s
		staff = append(staff, &copied)
	}
	sort.Slice(staff, func(i, j int) bool { return staff[i].ID < staff[j].ID })
	return staff, nil
}

func (db *DB) GetActiveRooms(ctx context.Context) ([]*models.Room, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var rooms []*models.Room
	for _, r := range db.rooms {
		if !r.IsActive {
			continue
		}
		copied := r
		rooms = append(rooms, &copied)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].SortOrder == rooms[j].SortOrder {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].SortOrder < rooms[j].SortOrder
	})
	return rooms, nil
}

func (db *DB) GetServiceByID(ctx context.Context, id int64) (*models.Service, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	s, ok := db.services[id]
	if !ok {
		return nil, fmt.Errorf("service %d not found", id)
	}
	copied := s
	return &copied, nil
}

func (db *DB) GetStaffByID(ctx context.Context, id int64) (*models.Staff, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	s, ok := db.staff[id]
	if !ok {
		return nil, fmt.Errorf("staff %d not found", id)
	}
	copied := s
	return &copied, nil
}

func (db *DB) GetRoomByID(ctx context.Context, id int64) (*models.Room, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	r, ok := db.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %d not found", id)
	}
	copied := r
	return &copied, nil
}

// GetDailyBookings buckets a window read by local calendar day, for the
// schedule export and the Sheets mirror.
func (db *DB) GetDailyBookings(ctx context.Context, start, end time.Time, loc *time.Location) (map[string][]*models.Booking, error) {
	bookings, err := db.GetBookingsForWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}

	daily := make(map[string][]*models.Booking)
	for _, b := range bookings {
		key := b.Start.In(loc).Format("2006-01-02")
		daily[key] = append(daily[key], b)
	}
	return daily, nil
}
