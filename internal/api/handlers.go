package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"praktika/internal/database"
	"praktika/internal/domain"
	"praktika/internal/models"
	"praktika/internal/schedule"
	"praktika/internal/service"
)

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	query := domain.AvailabilityQuery{
		Date: strings.TrimSpace(q.Get("date")),
		Time: strings.TrimSpace(q.Get("time")),
	}

	var err error
	if query.StaffID, err = parseID(q.Get("staffId")); err != nil {
		writeFieldError(w, "staffId", "must be an integer")
		return
	}
	if query.RoomID, err = parseOptionalID(q.Get("roomId")); err != nil {
		writeFieldError(w, "roomId", "must be an integer")
		return
	}
	if query.ServiceID, err = parseID(q.Get("serviceId")); err != nil {
		writeFieldError(w, "serviceId", "must be an integer")
		return
	}
	if query.DurationMinutes, err = parseMinutes(q.Get("durationMinutes")); err != nil {
		writeFieldError(w, "durationMinutes", "must be an integer")
		return
	}
	if query.ExcludeBookingID, err = parseID(q.Get("excludeBookingId")); err != nil {
		writeFieldError(w, "excludeBookingId", "must be an integer")
		return
	}

	report, err := s.availability.Check(r.Context(), query)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			writeFieldError(w, verr.Field, verr.Reason)
			return
		}
		writeError(w, http.StatusInternalServerError, "availability check failed")
		return
	}

	// A snapshot failure is surfaced as a gateway error with the last
	// known report riding along; the client decides whether to retry.
	if report.State == models.QueryErrored {
		writeJSON(w, http.StatusBadGateway, report)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	staffID, err := parseID(q.Get("staffId"))
	if err != nil {
		writeFieldError(w, "staffId", "must be an integer")
		return
	}
	roomID, err := parseOptionalID(q.Get("roomId"))
	if err != nil {
		writeFieldError(w, "roomId", "must be an integer")
		return
	}
	duration, err := parseMinutes(q.Get("durationMinutes"))
	if err != nil {
		writeFieldError(w, "durationMinutes", "must be an integer")
		return
	}
	excludeID, err := parseID(q.Get("excludeBookingId"))
	if err != nil {
		writeFieldError(w, "excludeBookingId", "must be an integer")
		return
	}

	slots, err := s.availability.DaySlots(r.Context(), staffID, roomID, strings.TrimSpace(q.Get("date")), duration, excludeID)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			writeFieldError(w, verr.Field, verr.Reason)
			return
		}
		writeError(w, http.StatusBadGateway, "slot computation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

type createBookingRequest struct {
	ClientID        int64  `json:"client_id"`
	ClientName      string `json:"client_name"`
	StaffID         int64  `json:"staff_id"`
	RoomID          *int64 `json:"room_id"`
	ServiceID       int64  `json:"service_id"`
	Date            string `json:"date"` // local calendar date, YYYY-MM-DD
	Time            string `json:"time"` // local wall-clock, HH:MM
	DurationMinutes int    `json:"duration_minutes"`
	Comment         string `json:"comment"`
	Override        bool   `json:"override"`
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, err := schedule.LocalDateTimeToInstant(req.Date, req.Time, s.loc)
	if err != nil {
		writeFieldError(w, "time", err.Error())
		return
	}

	booking := &models.Booking{
		ClientID:        req.ClientID,
		ClientName:      req.ClientName,
		StaffID:         req.StaffID,
		RoomID:          req.RoomID,
		ServiceID:       req.ServiceID,
		Start:           start,
		DurationMinutes: req.DurationMinutes,
		Comment:         req.Comment,
	}

	report, err := s.bookings.CreateBooking(r.Context(), booking, req.Override)
	if err != nil {
		s.writeBookingError(w, err)
		return
	}

	// A conflict without an override leaves the booking uncreated; the
	// client shows the report and may resubmit with override set.
	if booking.ID == 0 {
		writeJSON(w, http.StatusConflict, map[string]any{"report": report})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"booking": booking, "report": report})
}

type updateBookingRequest struct {
	Action          string `json:"action"` // cancel, complete, no_show, reschedule
	Version         int64  `json:"version"`
	Date            string `json:"date,omitempty"`
	Time            string `json:"time,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	if idStr == "" || strings.Contains(idStr, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeFieldError(w, "id", "must be an integer")
		return
	}

	switch r.Method {
	case http.MethodGet:
		booking, err := s.bookings.GetBooking(r.Context(), id)
		if err != nil {
			s.writeBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
	case http.MethodPatch:
		s.handleUpdateBooking(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleUpdateBooking(w http.ResponseWriter, r *http.Request, id int64) {
	var req updateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch req.Action {
	case "cancel":
		err := s.bookings.CancelBooking(r.Context(), id, req.Version)
		s.writeTransitionResult(w, r, id, err)
	case "complete":
		err := s.bookings.CompleteBooking(r.Context(), id, req.Version)
		s.writeTransitionResult(w, r, id, err)
	case "no_show":
		err := s.bookings.MarkNoShow(r.Context(), id, req.Version)
		s.writeTransitionResult(w, r, id, err)
	case "reschedule":
		newStart, err := schedule.LocalDateTimeToInstant(req.Date, req.Time, s.loc)
		if err != nil {
			writeFieldError(w, "time", err.Error())
			return
		}
		report, err := s.bookings.RescheduleBooking(r.Context(), id, req.Version, newStart, req.DurationMinutes)
		if err != nil {
			s.writeBookingError(w, err)
			return
		}
		if report.HasConflict {
			writeJSON(w, http.StatusConflict, map[string]any{"report": report})
			return
		}
		booking, err := s.bookings.GetBooking(r.Context(), id)
		if err != nil {
			s.writeBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"booking": booking, "report": report})
	default:
		writeFieldError(w, "action", "must be one of cancel, complete, no_show, reschedule")
	}
}

func (s *HTTPServer) writeTransitionResult(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
}

func (s *HTTPServer) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, database.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot was just taken")
	case errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "booking was modified concurrently")
	case errors.Is(err, database.ErrPastDate):
		writeFieldError(w, "time", "start is in the past")
	case errors.Is(err, database.ErrDateTooFar):
		writeFieldError(w, "date", "start is too far ahead")
	case errors.Is(err, database.ErrInvalidDuration):
		writeFieldError(w, "duration_minutes", "must be positive")
	default:
		s.logger.Error().Err(err).Msg("booking request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func parseOptionalID(raw string) (*int64, error) {
	id, err := parseID(raw)
	if err != nil || id == 0 {
		return nil, err
	}
	return &id, nil
}

func parseMinutes(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
