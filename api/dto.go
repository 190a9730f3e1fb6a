/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// MechanicDTO represents a mechanic in API responses.
type MechanicDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Status    string `json:"status"`
}

// SaveMechanicRequest is the request to create or update a mechanic.
type SaveMechanicRequest struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Status    string `json:"status"`
}

// LocationDTO represents a service bay in API responses.
type LocationDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Capacity int    `json:"capacity"`
}

// SaveLocationRequest is the request to create or update a location.
type SaveLocationRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Capacity *int   `json:"capacity,omitempty"`
}

// AppointmentDTO represents an appointment in API responses.
type AppointmentDTO struct {
	ID              string  `json:"id"`
	Description     string  `json:"description,omitempty"`
	AppointmentDate string  `json:"appointment_date"`
	ScheduledStart  *string `json:"scheduled_start,omitempty"`
	ScheduledEnd    *string `json:"scheduled_end,omitempty"`
	MechanicID      *string `json:"mechanic_id,omitempty"`
	LocationID      *string `json:"location_id,omitempty"`
	Status          string  `json:"status"`
}

// SaveAppointmentRequest is the request to create or update an appointment.
// Timestamps are RFC3339.
type SaveAppointmentRequest struct {
	ID              string  `json:"id"`
	Description     string  `json:"description"`
	AppointmentDate string  `json:"appointment_date"`
	ScheduledStart  *string `json:"scheduled_start,omitempty"`
	ScheduledEnd    *string `json:"scheduled_end,omitempty"`
	Status          string  `json:"status"`
}

// AssignRequest names the resource to assign to an appointment.
type AssignRequest struct {
	MechanicID string `json:"mechanic_id,omitempty"`
	LocationID string `json:"location_id,omitempty"`
}

// DaySlotDTO is one business day of a mechanic's availability.
type DaySlotDTO struct {
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	Available        bool   `json:"available"`
	AppointmentCount int    `json:"appointment_count,omitempty"`
}

// WorkLogDTO represents a work log in API responses.
type WorkLogDTO struct {
	ID            string  `json:"id"`
	AppointmentID string  `json:"appointment_id"`
	MechanicID    string  `json:"mechanic_id"`
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	HoursWorked   string  `json:"hours_worked"`
	BillableHours *string `json:"billable_hours,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// SaveWorkLogRequest is the request to create or update a work log.
type SaveWorkLogRequest struct {
	ID            string  `json:"id"`
	AppointmentID string  `json:"appointment_id"`
	MechanicID    string  `json:"mechanic_id"`
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	BillableHours *string `json:"billable_hours,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// ComputeHoursResponse is returned by the compute-hours endpoint.
type ComputeHoursResponse struct {
	WorkLogID   string `json:"work_log_id"`
	HoursWorked string `json:"hours_worked"`
}

// ErrorResponse is the JSON shape of every failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
