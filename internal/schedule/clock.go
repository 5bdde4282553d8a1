package schedule

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	todLayout  = "15:04"
)

// LocalDateTimeToInstant resolves a calendar date plus a wall-clock time in
// the practice timezone to an absolute instant. This is the only place a
// date/time string pair becomes a time.Time; interval math never touches
// raw strings.
func LocalDateTimeToInstant(date, tod string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	minutes, err := ParseWallClock(tod)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, loc), nil
}

// InstantToLocal is the inverse mapping: an absolute instant expressed as
// the practice's local date and wall-clock time.
func InstantToLocal(t time.Time, loc *time.Location) (date, tod string) {
	local := t.In(loc)
	return local.Format(dateLayout), local.Format(todLayout)
}

// ParseWallClock parses "HH:MM" into minutes from midnight. "24:00" is
// accepted as the exclusive end-of-day bound.
func ParseWallClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse wall clock %q: %w", s, err)
	}
	if h == 24 && m == 0 {
		return 24 * 60, nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("wall clock %q out of range", s)
	}
	return h*60 + m, nil
}

// ResolveDuration picks the session length with an explicit precedence:
// caller override, then the service's standard length, then the practice
// fallback. Non-positive values are treated as unset.
func ResolveDuration(override, serviceDuration, fallback int) int {
	if override > 0 {
		return override
	}
	if serviceDuration > 0 {
		return serviceDuration
	}
	return fallback
}

// DayWindow returns the absolute interval covering the local calendar day
// widened by bufferDays on each side, for snapshot fetches that must catch
// sessions crossing local midnight.
func DayWindow(date string, loc *time.Location, bufferDays int) (Interval, error) {
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return Interval{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	start := time.Date(day.Year(), day.Month(), day.Day()-bufferDays, 0, 0, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day()+bufferDays+1, 0, 0, 0, 0, loc)
	return Interval{Start: start, End: end}, nil
}
