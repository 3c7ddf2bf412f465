package types

import "time"

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// statusTransitions is the closed transition table. Self-transitions are
// always permitted; completed and cancelled are terminal.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusScheduled, StatusConfirmed, StatusCancelled},
	StatusScheduled: {StatusConfirmed, StatusCancelled, StatusCompleted},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

// ValidStatus reports whether s is a member of the closed status set.
func ValidStatus(s AppointmentStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether an appointment in state from may move to state to.
func CanTransition(from, to AppointmentStatus) bool {
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Appointment represents a booking between a patient and a doctor.
// Time is a caller-supplied display string and is stored verbatim; the
// platform never parses or range-checks it.
type Appointment struct {
	ID          string            `json:"id"`
	PatientID   string            `json:"patient_id"`
	DoctorID    string            `json:"doctor_id"`
	PatientName string            `json:"patient_name"`
	DoctorName  string            `json:"doctor_name"`
	Date        time.Time         `json:"date"`
	Time        string            `json:"time"`
	Reason      string            `json:"reason"`
	Status      AppointmentStatus `json:"status"`
	Notes       string            `json:"notes,omitempty"`
	Version     int               `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// AppointmentRequest represents a booking creation payload
type AppointmentRequest struct {
	DoctorID string `json:"doctor_id" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

// AppointmentUpdates represents a partial appointment update; nil fields
// are left untouched. Version, when supplied, must match the stored row.
type AppointmentUpdates struct {
	Status  *AppointmentStatus `json:"status,omitempty"`
	Notes   *string            `json:"notes,omitempty"`
	Date    *time.Time         `json:"date,omitempty"`
	Time    *string            `json:"time,omitempty"`
	Reason  *string            `json:"reason,omitempty"`
	Version *int               `json:"version,omitempty"`
}

// CancellationRecord is one entry in the append-only cancellation log
type CancellationRecord struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	ActorRole     Role      `json:"actor_role"`
	ActorID       string    `json:"actor_id"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}

// AppointmentFilters narrows appointment listings
type AppointmentFilters struct {
	PatientID string
	DoctorID  string
	Status    AppointmentStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}
