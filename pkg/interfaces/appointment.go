package interfaces

import (
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// AppointmentService defines the interface for the booking lifecycle.
// Every mutating call receives the resolved caller claims; ownership and
// role checks live in the service, not the router.
type AppointmentService interface {
	// Lifecycle
	CreateAppointment(req *types.AppointmentRequest, caller *types.IdentityClaims) (*types.Appointment, error)
	GetAppointment(aptID string) (*types.Appointment, error)
	UpdateAppointment(aptID string, updates *types.AppointmentUpdates, caller *types.IdentityClaims) (*types.Appointment, error)
	CancelAppointment(aptID, reason string, version *int, caller *types.IdentityClaims) (*types.Appointment, error)
	RescheduleAppointment(aptID string, date, timeOfDay string, version *int, caller *types.IdentityClaims) (*types.Appointment, error)
	DeleteAppointment(aptID string, caller *types.IdentityClaims) error

	// Queries
	ListAppointments(filters *types.AppointmentFilters) ([]*types.Appointment, error)
	ListPatientAppointments(patientID string) ([]*types.Appointment, error)
	ListDoctorAppointments(doctorID string) ([]*types.Appointment, error)
	GetCancellations(aptID string) ([]*types.CancellationRecord, error)
}

// AppointmentRepository defines the interface for appointment persistence
type AppointmentRepository interface {
	CreateAppointment(apt *types.Appointment) error
	GetAppointmentByID(id string) (*types.Appointment, error)
	UpdateAppointment(id string, updates *types.AppointmentUpdates) error
	DeleteAppointment(id string) error
	GetAppointments(filters *types.AppointmentFilters) ([]*types.Appointment, error)
	AppendCancellation(rec *types.CancellationRecord) error
	GetCancellations(appointmentID string) ([]*types.CancellationRecord, error)
}

// ScheduleService defines the interface for doctor availability lookups.
// Slot data is informational only; booking never consults it.
type ScheduleService interface {
	GetAvailableSlots(doctorID, date string) ([]*types.TimeSlot, error)
	UpsertSchedule(doctorID string, upsert *types.ScheduleUpsert, caller *types.IdentityClaims) (*types.DoctorSchedule, error)
	SetDoctorAvailability(doctorID string, available bool, caller *types.IdentityClaims) error
	ListDoctors() ([]*types.Identity, error)
}

// ScheduleRepository defines the interface for schedule persistence
type ScheduleRepository interface {
	UpsertSchedule(schedule *types.DoctorSchedule) error
	GetSchedules(doctorID string) ([]*types.DoctorSchedule, error)
	GetBookedTimes(doctorID, date string) ([]string, error)
}
