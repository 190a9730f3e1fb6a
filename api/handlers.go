/*
handlers.go - HTTP API handlers for the shop scheduler

PURPOSE:
  Exposes the scheduling engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Mechanics:
    GET    /api/mechanics                       List mechanics
    PUT    /api/mechanics/{id}                  Create/update mechanic
    GET    /api/mechanics/{id}/availability     Day slots for a date range

  Locations:
    GET    /api/locations                       List locations
    PUT    /api/locations/{id}                  Create/update location

  Appointments:
    GET    /api/appointments/{id}               Get appointment
    PUT    /api/appointments/{id}               Create/update appointment
    POST   /api/appointments/{id}/assign-mechanic  Assign a mechanic
    POST   /api/appointments/{id}/assign-location  Assign a location

  Work logs:
    GET    /api/worklogs/{id}                   Get work log
    PUT    /api/worklogs/{id}                   Create/update work log
    POST   /api/worklogs/{id}/compute-hours     Compute worked hours

ERROR HANDLING:
  Expected scheduling outcomes map to HTTP status codes:
  - 404: record not found
  - 409: mechanic conflict, location capacity exceeded
  - 422: ineligible resource, work log missing timestamps
  - 400: malformed input
  - 500: store-layer failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/shop-scheduler/scheduling"
	"github.com/warp/shop-scheduler/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        *sqlite.Store
	Assigner     *scheduling.Assigner
	Availability *scheduling.AvailabilityCalculator
	WorkLogs     *scheduling.WorkLogCalculator
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:        store,
		Assigner:     scheduling.NewAssigner(store),
		Availability: scheduling.NewAvailabilityCalculator(store),
		WorkLogs:     scheduling.NewWorkLogCalculator(store),
	}
}

// =============================================================================
// MECHANIC HANDLERS
// =============================================================================

// ListMechanics returns all mechanics.
func (h *Handler) ListMechanics(w http.ResponseWriter, r *http.Request) {
	mechanics, err := h.Store.ListMechanics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list mechanics", err)
		return
	}

	dtos := make([]MechanicDTO, len(mechanics))
	for i, m := range mechanics {
		dtos[i] = MechanicDTO{
			ID:        string(m.ID),
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Status:    string(m.Status),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveMechanic creates or updates a mechanic.
// PUT /api/mechanics/{id}
func (h *Handler) SaveMechanic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SaveMechanicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status := scheduling.MechanicStatus(req.Status)
	if status == "" {
		status = scheduling.MechanicActive
	}

	mech := scheduling.Mechanic{
		ID:        scheduling.MechanicID(id),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Status:    status,
	}
	if err := h.Store.SaveMechanic(r.Context(), mech); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save mechanic", err)
		return
	}

	writeJSON(w, http.StatusOK, MechanicDTO{
		ID:        string(mech.ID),
		FirstName: mech.FirstName,
		LastName:  mech.LastName,
		Status:    string(mech.Status),
	})
}

// GetAvailability returns day slots for a mechanic over a date range.
// GET /api/mechanics/{id}/availability?from=2025-03-03&thru=2025-03-07
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id := scheduling.MechanicID(chi.URLParam(r, "id"))

	from, err := parseDateParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'from' date", err)
		return
	}
	thru, err := parseDateParam(r, "thru")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'thru' date", err)
		return
	}
	if thru.Before(from) {
		writeError(w, http.StatusBadRequest, "'thru' must not precede 'from'", nil)
		return
	}

	slots, err := h.Availability.MechanicAvailability(r.Context(), id, from, thru)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute availability", err)
		return
	}

	dtos := make([]DaySlotDTO, len(slots))
	for i, s := range slots {
		dtos[i] = DaySlotDTO{
			Date:             s.Date.Format("2006-01-02"),
			StartTime:        s.WindowStart.Format("15:04"),
			EndTime:          s.WindowEnd.Format("15:04"),
			Available:        s.Available,
			AppointmentCount: s.AppointmentCount,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LOCATION HANDLERS
// =============================================================================

// ListLocations returns all locations.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Store.ListLocations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list locations", err)
		return
	}

	dtos := make([]LocationDTO, len(locations))
	for i, l := range locations {
		dtos[i] = LocationDTO{
			ID:       string(l.ID),
			Name:     l.Name,
			Status:   string(l.Status),
			Capacity: l.EffectiveCapacity(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveLocation creates or updates a location.
// PUT /api/locations/{id}
func (h *Handler) SaveLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SaveLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status := scheduling.LocationStatus(req.Status)
	if status == "" {
		status = scheduling.LocationInService
	}

	loc := scheduling.Location{
		ID:       scheduling.LocationID(id),
		Name:     req.Name,
		Status:   status,
		Capacity: req.Capacity,
	}
	if err := h.Store.SaveLocation(r.Context(), loc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save location", err)
		return
	}

	writeJSON(w, http.StatusOK, LocationDTO{
		ID:       string(loc.ID),
		Name:     loc.Name,
		Status:   string(loc.Status),
		Capacity: loc.EffectiveCapacity(),
	})
}

// =============================================================================
// APPOINTMENT HANDLERS
// =============================================================================

// GetAppointment returns a single appointment.
func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := scheduling.AppointmentID(chi.URLParam(r, "id"))

	appt, err := h.Store.GetAppointment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load appointment", err)
		return
	}
	if appt == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Appointment %s not found", id), nil)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentDTO(*appt))
}

// SaveAppointment creates or updates an appointment.
// PUT /api/appointments/{id}
func (h *Handler) SaveAppointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SaveAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := time.Parse(time.RFC3339, req.AppointmentDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid appointment_date", err)
		return
	}
	start, err := parseOptionalTime(req.ScheduledStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scheduled_start", err)
		return
	}
	end, err := parseOptionalTime(req.ScheduledEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scheduled_end", err)
		return
	}
	if start != nil && end != nil && end.Before(*start) {
		writeError(w, http.StatusBadRequest, "scheduled_end precedes scheduled_start", nil)
		return
	}

	status := scheduling.AppointmentStatus(req.Status)
	if status == "" {
		status = scheduling.StatusScheduled
	}

	appt := scheduling.Appointment{
		ID:              scheduling.AppointmentID(id),
		Description:     req.Description,
		AppointmentDate: date,
		ScheduledStart:  start,
		ScheduledEnd:    end,
		Status:          status,
	}

	// Preserve any existing resource assignment on update. A failed read
	// must not be mistaken for "no existing record": that would wipe the
	// assignment this save is meant to keep.
	existing, err := h.Store.GetAppointment(r.Context(), appt.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load appointment", err)
		return
	}
	if existing != nil {
		appt.MechanicID = existing.MechanicID
		appt.LocationID = existing.LocationID
	}

	if err := h.Store.SaveAppointment(r.Context(), appt); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save appointment", err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentDTO(appt))
}

// AssignMechanic assigns a mechanic to an appointment.
// POST /api/appointments/{id}/assign-mechanic
func (h *Handler) AssignMechanic(w http.ResponseWriter, r *http.Request) {
	apptID := scheduling.AppointmentID(chi.URLParam(r, "id"))

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.MechanicID == "" {
		writeError(w, http.StatusBadRequest, "mechanic_id is required", nil)
		return
	}

	err := h.Assigner.AssignMechanic(r.Context(), apptID, scheduling.MechanicID(req.MechanicID))
	if err != nil {
		writeSchedulingError(w, err)
		return
	}

	h.respondWithAppointment(w, r, apptID)
}

// AssignLocation assigns a location to an appointment.
// POST /api/appointments/{id}/assign-location
func (h *Handler) AssignLocation(w http.ResponseWriter, r *http.Request) {
	apptID := scheduling.AppointmentID(chi.URLParam(r, "id"))

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.LocationID == "" {
		writeError(w, http.StatusBadRequest, "location_id is required", nil)
		return
	}

	err := h.Assigner.AssignLocation(r.Context(), apptID, scheduling.LocationID(req.LocationID))
	if err != nil {
		writeSchedulingError(w, err)
		return
	}

	h.respondWithAppointment(w, r, apptID)
}

func (h *Handler) respondWithAppointment(w http.ResponseWriter, r *http.Request, id scheduling.AppointmentID) {
	appt, err := h.Store.GetAppointment(r.Context(), id)
	if err != nil || appt == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentDTO(*appt))
}

// =============================================================================
// WORK LOG HANDLERS
// =============================================================================

// GetWorkLog returns a single work log.
func (h *Handler) GetWorkLog(w http.ResponseWriter, r *http.Request) {
	id := scheduling.WorkLogID(chi.URLParam(r, "id"))

	wl, err := h.Store.GetWorkLog(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load work log", err)
		return
	}
	if wl == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Work log %s not found", id), nil)
		return
	}

	writeJSON(w, http.StatusOK, toWorkLogDTO(*wl))
}

// SaveWorkLog creates or updates a work log.
// PUT /api/worklogs/{id}
func (h *Handler) SaveWorkLog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SaveWorkLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := parseOptionalTime(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_time", err)
		return
	}
	end, err := parseOptionalTime(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_time", err)
		return
	}

	wl := scheduling.WorkLog{
		ID:            scheduling.WorkLogID(id),
		AppointmentID: scheduling.AppointmentID(req.AppointmentID),
		MechanicID:    scheduling.MechanicID(req.MechanicID),
		StartTime:     start,
		EndTime:       end,
		Notes:         req.Notes,
	}
	if req.BillableHours != nil {
		billable, err := decimal.NewFromString(*req.BillableHours)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid billable_hours", err)
			return
		}
		wl.BillableHours = &billable
	}

	// Preserve derived hours on update; recomputation is explicit. A failed
	// read must not pass for "no existing record" and zero them out.
	existing, err := h.Store.GetWorkLog(r.Context(), wl.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load work log", err)
		return
	}
	if existing != nil {
		wl.HoursWorked = existing.HoursWorked
		if wl.BillableHours == nil {
			wl.BillableHours = existing.BillableHours
		}
	}

	if err := h.Store.SaveWorkLog(r.Context(), wl); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save work log", err)
		return
	}

	writeJSON(w, http.StatusOK, toWorkLogDTO(wl))
}

// ComputeHours computes and persists worked hours for a work log.
// POST /api/worklogs/{id}/compute-hours
func (h *Handler) ComputeHours(w http.ResponseWriter, r *http.Request) {
	id := scheduling.WorkLogID(chi.URLParam(r, "id"))

	hours, err := h.WorkLogs.ComputeHours(r.Context(), id)
	if err != nil {
		writeSchedulingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ComputeHoursResponse{
		WorkLogID:   string(id),
		HoursWorked: hours.StringFixed(2),
	})
}

// =============================================================================
// DTO CONVERSION
// =============================================================================

func toAppointmentDTO(appt scheduling.Appointment) AppointmentDTO {
	dto := AppointmentDTO{
		ID:              string(appt.ID),
		Description:     appt.Description,
		AppointmentDate: appt.AppointmentDate.Format(time.RFC3339),
		Status:          string(appt.Status),
	}
	if appt.ScheduledStart != nil {
		s := appt.ScheduledStart.Format(time.RFC3339)
		dto.ScheduledStart = &s
	}
	if appt.ScheduledEnd != nil {
		s := appt.ScheduledEnd.Format(time.RFC3339)
		dto.ScheduledEnd = &s
	}
	if appt.MechanicID != nil {
		s := string(*appt.MechanicID)
		dto.MechanicID = &s
	}
	if appt.LocationID != nil {
		s := string(*appt.LocationID)
		dto.LocationID = &s
	}
	return dto
}

func toWorkLogDTO(wl scheduling.WorkLog) WorkLogDTO {
	dto := WorkLogDTO{
		ID:            string(wl.ID),
		AppointmentID: string(wl.AppointmentID),
		MechanicID:    string(wl.MechanicID),
		HoursWorked:   wl.HoursWorked.StringFixed(2),
		Notes:         wl.Notes,
	}
	if wl.StartTime != nil {
		s := wl.StartTime.Format(time.RFC3339)
		dto.StartTime = &s
	}
	if wl.EndTime != nil {
		s := wl.EndTime.Format(time.RFC3339)
		dto.EndTime = &s
	}
	if wl.BillableHours != nil {
		s := wl.BillableHours.StringFixed(2)
		dto.BillableHours = &s
	}
	return dto
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeSchedulingError maps expected scheduling outcomes to HTTP statuses.
func writeSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrNotFound):
		writeError(w, http.StatusNotFound, "Record not found", err)
	case errors.Is(err, scheduling.ErrConflict), errors.Is(err, scheduling.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, "Scheduling conflict", err)
	case errors.Is(err, scheduling.ErrIneligible), errors.Is(err, scheduling.ErrInvalidState):
		writeError(w, http.StatusUnprocessableEntity, "Request cannot be processed", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing %q parameter", name)
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func parseOptionalTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
