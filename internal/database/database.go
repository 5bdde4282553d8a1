package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"praktika/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

var (
	// ErrSlotTaken is returned by the commit-time conflict guard: the
	// advisory report the user saw was stale and someone else took the
	// slot first.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrConcurrentModification signals a lost optimistic-version race.
	ErrConcurrentModification = errors.New("booking was modified concurrently")

	// ErrNotFound is returned when a booking id does not exist.
	ErrNotFound = errors.New("booking not found")

	// ErrPastDate rejects bookings placed before today.
	ErrPastDate = errors.New("booking date is in the past")

	// ErrDateTooFar rejects bookings beyond the allowed horizon.
	ErrDateTooFar = errors.New("booking date is too far in the future")

	// ErrInvalidDuration rejects non-positive durations before they reach
	// the engine.
	ErrInvalidDuration = errors.New("duration must be positive")
)

// sqliteTimeLayout keeps stored instants comparable with sqlite's
// datetime() functions. All stored times are UTC.
const sqliteTimeLayout = "2006-01-02 15:04:05"

type DB struct {
	*sql.DB
	logger zerolog.Logger

	mu       sync.RWMutex
	staff    map[int64]models.Staff
	rooms    map[int64]models.Room
	services map[int64]models.Service
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	dbLogger := logger.With().Str("component", "database").Logger()
	dbLogger.Info().Str("path", path).Msg("database initialized")

	return &DB{
		DB:       db,
		logger:   dbLogger,
		staff:    make(map[int64]models.Staff),
		rooms:    make(map[int64]models.Room),
		services: make(map[int64]models.Service),
	}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            client_id INTEGER NOT NULL,
            client_name TEXT NOT NULL,
            staff_id INTEGER NOT NULL,
            room_id INTEGER,
            service_id INTEGER NOT NULL DEFAULT 0,
            start_utc DATETIME NOT NULL,
            duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
            status TEXT NOT NULL DEFAULT 'scheduled',
            comment TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,

		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            payload TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            attempts INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_start ON bookings(start_utc)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_staff ON bookings(staff_id, start_utc)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_room ON bookings(room_id, start_utc)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("exec %q: %w", query, err)
		}
	}
	return nil
}

// SetResources installs the practice's staff, rooms and services from the
// seed config. Resources are reference data; bookings are the only
// mutable records.
func (db *DB) SetResources(staff []models.Staff, rooms []models.Room, services []models.Service) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.staff = make(map[int64]models.Staff, len(staff))
	for _, s := range staff {
		db.staff[s.ID] = s
	}
	db.rooms = make(map[int64]models.Room, len(rooms))
	for _, r := range rooms {
		db.rooms[r.ID] = r
	}
	db.services = make(map[int64]models.Service, len(services))
	for _, s := range services {
		db.services[s.ID] = s
	}
}
