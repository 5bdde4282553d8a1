package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"praktika/internal/models"
)

const bookingColumns = `id, client_id, client_name, staff_id, room_id, service_id,
                 start_utc, duration_minutes, status, comment, created_at,
                 updated_at, version`

// GetBookingsForWindow reads every booking whose interval intersects
// [start, end), regardless of status. Callers filter liveness; the query
// keeps historical rows visible for audit views.
func (db *DB) GetBookingsForWindow(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
              FROM bookings
              WHERE start_utc < ?
                AND datetime(start_utc, '+' || duration_minutes || ' minutes') > ?
              ORDER BY start_utc ASC, id ASC`

	rows, err := db.QueryContext(ctx, query,
		end.UTC().Format(sqliteTimeLayout),
		start.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("get bookings for window: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetBookingsByStaff narrows the window read to one practitioner.
func (db *DB) GetBookingsByStaff(ctx context.Context, staffID int64, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
              FROM bookings
              WHERE staff_id = ?
                AND start_utc < ?
                AND datetime(start_utc, '+' || duration_minutes || ' minutes') > ?
              ORDER BY start_utc ASC, id ASC`

	rows, err := db.QueryContext(ctx, query,
		staffID,
		end.UTC().Format(sqliteTimeLayout),
		start.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("get bookings by staff: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// CreateBookingWithConflictCheck inserts a booking after re-checking both
// resource dimensions inside the same transaction. The engine's report is
// advisory; this write is where the no-double-booking invariant is
// enforced.
func (db *DB) CreateBookingWithConflictCheck(ctx context.Context, booking *models.Booking) error {
	if booking.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	startStr := booking.Start.UTC().Format(sqliteTimeLayout)
	endStr := booking.End().UTC().Format(sqliteTimeLayout)

	// Staff dimension. Half-open semantics: strict < and > keep
	// back-to-back sessions legal.
	staffQuery := `SELECT COUNT(*) FROM bookings
                   WHERE staff_id = ?
                     AND status IN (?, ?)
                     AND id != ?
                     AND start_utc < ?
                     AND datetime(start_utc, '+' || duration_minutes || ' minutes') > ?`
	var staffCount int
	err = tx.QueryRowContext(ctx, staffQuery,
		booking.StaffID, models.StatusScheduled, models.StatusCompleted,
		booking.ID, endStr, startStr,
	).Scan(&staffCount)
	if err != nil {
		return fmt.Errorf("check staff conflicts in tx: %w", err)
	}
	if staffCount > 0 {
		return ErrSlotTaken
	}

	// Room dimension, skipped for remote sessions.
	if booking.HasRoom() {
		roomQuery := `SELECT COUNT(*) FROM bookings
                      WHERE room_id = ?
                        AND status IN (?, ?)
                        AND id != ?
                        AND start_utc < ?
                        AND datetime(start_utc, '+' || duration_minutes || ' minutes') > ?`
		var roomCount int
		err = tx.QueryRowContext(ctx, roomQuery,
			*booking.RoomID, models.StatusScheduled, models.StatusCompleted,
			booking.ID, endStr, startStr,
		).Scan(&roomCount)
		if err != nil {
			return fmt.Errorf("check room conflicts in tx: %w", err)
		}
		if roomCount > 0 {
			return ErrSlotTaken
		}
	}

	if err := insertBooking(ctx, tx, booking); err != nil {
		return err
	}

	return tx.Commit()
}

// CreateBooking inserts without the conflict re-check. Used for explicit
// double-booking overrides, where the caller already saw and accepted the
// conflict report.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	return insertBooking(ctx, db.DB, booking)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertBooking(ctx context.Context, ex execer, booking *models.Booking) error {
	now := time.Now().UTC()
	insert := `INSERT INTO bookings (
                client_id, client_name, staff_id, room_id, service_id,
                start_utc, duration_minutes, status, comment, created_at,
                updated_at, version
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := ex.ExecContext(ctx, insert,
		booking.ClientID,
		booking.ClientName,
		booking.StaffID,
		nullableID(booking.RoomID),
		booking.ServiceID,
		booking.Start.UTC().Format(sqliteTimeLayout),
		booking.DurationMinutes,
		booking.Status,
		booking.Comment,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now().UTC(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// RescheduleBookingWithVersion moves a booking to a new interval after
// re-checking conflicts in the same transaction, excluding the booking
// itself from the comparison.
func (db *DB) RescheduleBookingWithVersion(ctx context.Context, id, fromVersion int64, newStart time.Time, newDuration int) error {
	if newDuration <= 0 {
		return ErrInvalidDuration
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load booking in tx: %w", err)
	}

	startStr := newStart.UTC().Format(sqliteTimeLayout)
	endStr := newStart.Add(time.Duration(newDuration) * time.Minute).UTC().Format(sqliteTimeLayout)

	conflictQuery := `SELECT COUNT(*) FROM bookings
                      WHERE id != ?
                        AND status IN (?, ?)
                        AND (staff_id = ? OR (room_id IS NOT NULL AND room_id = ?))
                        AND start_utc < ?
                        AND datetime(start_utc, '+' || duration_minutes || ' minutes') > ?`
	var roomRef int64
	if current.HasRoom() {
		roomRef = *current.RoomID
	}
	var count int
	err = tx.QueryRowContext(ctx, conflictQuery,
		id, models.StatusScheduled, models.StatusCompleted,
		current.StaffID, roomRef, endStr, startStr,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check conflicts in tx: %w", err)
	}
	if count > 0 {
		return ErrSlotTaken
	}

	update := `UPDATE bookings
               SET start_utc = ?, duration_minutes = ?, version = version + 1, updated_at = ?
               WHERE id = ? AND version = ?`
	result, err := tx.ExecContext(ctx, update, startStr, newDuration, time.Now().UTC(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("reschedule booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}

	return tx.Commit()
}

func nullableID(id *int64) interface{} {
	if id == nil || *id == 0 {
		return nil
	}
	return *id
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	var startStr string
	var room sql.NullInt64
	var comment sql.NullString

	err := row.Scan(
		&b.ID, &b.ClientID, &b.ClientName, &b.StaffID, &room, &b.ServiceID,
		&startStr, &b.DurationMinutes, &b.Status, &comment,
		&b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	if room.Valid {
		v := room.Int64
		b.RoomID = &v
	}
	if comment.Valid {
		b.Comment = comment.String
	}

	b.Start, err = time.ParseInLocation(sqliteTimeLayout, startStr, time.UTC)
	if err != nil {
		// Some drivers hand back RFC3339 depending on how the value was
		// bound; accept both.
		b.Start, err = time.Parse(time.RFC3339, startStr)
		if err != nil {
			return nil, fmt.Errorf("parse booking start %q: %w", startStr, err)
		}
		b.Start = b.Start.UTC()
	}
	return b, nil
}

func scanBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
