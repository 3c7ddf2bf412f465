package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/interfaces"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/monitoring"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// Service implements the appointment booking lifecycle. All ownership
// and role checks live here; routes only establish who the caller is.
type Service struct {
	logger     *logger.Logger
	repository interfaces.AppointmentRepository
	identities interfaces.IdentityRepository
	metrics    *monitoring.MetricsCollector
}

// NewService creates a new appointment service
func NewService(log *logger.Logger, repo interfaces.AppointmentRepository, identities interfaces.IdentityRepository, metrics *monitoring.MetricsCollector) *Service {
	return &Service{
		logger:     log,
		repository: repo,
		identities: identities,
		metrics:    metrics,
	}
}

// CreateAppointment books an appointment for the calling patient.
// Doctor availability and schedules are informational and deliberately
// not checked here; double-booking a slot is allowed.
func (s *Service) CreateAppointment(req *types.AppointmentRequest, caller *types.IdentityClaims) (*types.Appointment, error) {
	if caller.Role != types.RolePatient {
		return nil, types.NewAuthorizationError(types.ErrCodeForbidden, "Only patients can book appointments")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"Invalid date, expected YYYY-MM-DD", nil)
	}
	if strings.TrimSpace(req.Time) == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "Time is required", nil)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "Reason is required", nil)
	}

	doctor, err := s.identities.GetIdentityByID(req.DoctorID)
	if err != nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "Doctor not found")
	}
	if doctor.Role != types.RoleDoctor {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"Referenced identity is not a doctor", nil)
	}

	now := time.Now()
	apt := &types.Appointment{
		ID:          uuid.New().String(),
		PatientID:   caller.IdentityID,
		DoctorID:    doctor.ID,
		PatientName: caller.Name,
		DoctorName:  doctor.Name,
		Date:        date,
		Time:        req.Time, // stored verbatim, never normalized
		Reason:      req.Reason,
		Status:      types.StatusPending,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repository.CreateAppointment(apt); err != nil {
		return nil, err
	}

	s.metrics.RecordAppointmentEvent("created", string(caller.Role))
	return apt, nil
}

// GetAppointment retrieves one appointment by id
func (s *Service) GetAppointment(aptID string) (*types.Appointment, error) {
	return s.repository.GetAppointmentByID(aptID)
}

// UpdateAppointment applies a partial update. Permitted to the owning
// patient, the assigned doctor, or an admin. Status changes must follow
// the transition table.
func (s *Service) UpdateAppointment(aptID string, updates *types.AppointmentUpdates, caller *types.IdentityClaims) (*types.Appointment, error) {
	apt, err := s.repository.GetAppointmentByID(aptID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(apt, caller); err != nil {
		return nil, err
	}
	if err := checkVersion(apt, updates.Version); err != nil {
		return nil, err
	}

	if updates.Status != nil {
		if !types.ValidStatus(*updates.Status) {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput,
				fmt.Sprintf("Unknown status %q", *updates.Status), nil)
		}
		if !types.CanTransition(apt.Status, *updates.Status) {
			return nil, types.NewConflictError(types.ErrCodeInvalidTransition,
				fmt.Sprintf("Cannot move appointment from %s to %s", apt.Status, *updates.Status), nil)
		}
	}

	if err := s.repository.UpdateAppointment(aptID, updates); err != nil {
		return nil, err
	}

	s.metrics.RecordAppointmentEvent("updated", string(caller.Role))
	return s.repository.GetAppointmentByID(aptID)
}

// CancelAppointment cancels an appointment and records who did it.
// Cancelling an already-cancelled appointment is not an error; the log
// entry is still appended.
func (s *Service) CancelAppointment(aptID, reason string, version *int, caller *types.IdentityClaims) (*types.Appointment, error) {
	apt, err := s.repository.GetAppointmentByID(aptID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(apt, caller); err != nil {
		return nil, err
	}
	if err := checkVersion(apt, version); err != nil {
		return nil, err
	}

	record := &types.CancellationRecord{
		ID:            uuid.New().String(),
		AppointmentID: apt.ID,
		ActorRole:     caller.Role,
		ActorID:       caller.IdentityID,
		Reason:        reason,
		CreatedAt:     time.Now(),
	}

	status := types.StatusCancelled
	notes := appendCancellationNote(apt.Notes, record)
	updates := &types.AppointmentUpdates{
		Status:  &status,
		Notes:   &notes,
		Version: version,
	}

	if err := s.repository.UpdateAppointment(aptID, updates); err != nil {
		return nil, err
	}
	if err := s.repository.AppendCancellation(record); err != nil {
		return nil, err
	}

	s.logger.Audit(caller.IdentityID, "cancel", "appointment", true, map[string]interface{}{
		"appointment_id": apt.ID,
		"actor_role":     caller.Role,
	})
	s.metrics.RecordAppointmentEvent("cancelled", string(caller.Role))
	return s.repository.GetAppointmentByID(aptID)
}

// RescheduleAppointment replaces the date and time. The time string is
// stored verbatim and there is no precondition on the current status.
func (s *Service) RescheduleAppointment(aptID string, date, timeOfDay string, version *int, caller *types.IdentityClaims) (*types.Appointment, error) {
	apt, err := s.repository.GetAppointmentByID(aptID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(apt, caller); err != nil {
		return nil, err
	}
	if err := checkVersion(apt, version); err != nil {
		return nil, err
	}

	newDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"Invalid date, expected YYYY-MM-DD", nil)
	}
	if strings.TrimSpace(timeOfDay) == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "Time is required", nil)
	}

	updates := &types.AppointmentUpdates{
		Date:    &newDate,
		Time:    &timeOfDay,
		Version: version,
	}
	if err := s.repository.UpdateAppointment(aptID, updates); err != nil {
		return nil, err
	}

	s.metrics.RecordAppointmentEvent("rescheduled", string(caller.Role))
	return s.repository.GetAppointmentByID(aptID)
}

// DeleteAppointment removes an appointment entirely
func (s *Service) DeleteAppointment(aptID string, caller *types.IdentityClaims) error {
	apt, err := s.repository.GetAppointmentByID(aptID)
	if err != nil {
		return err
	}
	if err := s.authorize(apt, caller); err != nil {
		return err
	}

	if err := s.repository.DeleteAppointment(aptID); err != nil {
		return err
	}

	s.metrics.RecordAppointmentEvent("deleted", string(caller.Role))
	return nil
}

// ListAppointments retrieves appointments matching the filters
func (s *Service) ListAppointments(filters *types.AppointmentFilters) ([]*types.Appointment, error) {
	return s.repository.GetAppointments(filters)
}

// ListPatientAppointments retrieves one patient's appointments
func (s *Service) ListPatientAppointments(patientID string) ([]*types.Appointment, error) {
	return s.repository.GetAppointments(&types.AppointmentFilters{PatientID: patientID})
}

// ListDoctorAppointments retrieves one doctor's assigned appointments
func (s *Service) ListDoctorAppointments(doctorID string) ([]*types.Appointment, error) {
	return s.repository.GetAppointments(&types.AppointmentFilters{DoctorID: doctorID})
}

// GetCancellations lists the cancellation log for one appointment
func (s *Service) GetCancellations(aptID string) ([]*types.CancellationRecord, error) {
	if _, err := s.repository.GetAppointmentByID(aptID); err != nil {
		return nil, err
	}
	return s.repository.GetCancellations(aptID)
}

// authorize admits the owning patient, the assigned doctor, or an admin.
// The id comparison is always made inside the caller's role namespace.
func (s *Service) authorize(apt *types.Appointment, caller *types.IdentityClaims) error {
	switch caller.Role {
	case types.RoleAdmin:
		return nil
	case types.RoleDoctor:
		if apt.DoctorID == caller.IdentityID {
			return nil
		}
	case types.RolePatient:
		if apt.PatientID == caller.IdentityID {
			return nil
		}
	}
	return types.NewAuthorizationError(types.ErrCodeForbidden,
		"Not permitted to modify this appointment")
}

// checkVersion rejects a supplied stale version early, with the current
// version in the error details. The repository repeats the check inside
// the UPDATE itself, so a writer that races past this one still loses.
// A nil version keeps the original last-writer-wins behavior.
func checkVersion(apt *types.Appointment, version *int) error {
	if version == nil {
		return nil
	}
	if *version != apt.Version {
		return types.NewConflictError(types.ErrCodeStaleVersion,
			"Appointment was modified since it was read", map[string]interface{}{
				"current_version":  apt.Version,
				"supplied_version": *version,
			})
	}
	return nil
}

func appendCancellationNote(notes string, rec *types.CancellationRecord) string {
	line := fmt.Sprintf("Cancelled by %s on %s", rec.ActorRole,
		rec.CreatedAt.Format("2006-01-02 15:04"))
	if rec.Reason != "" {
		line += ": " + rec.Reason
	}
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
