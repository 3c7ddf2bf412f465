package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/interfaces"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// Service implements doctor availability lookups. Everything here is
// informational; booking never consults schedules or slot occupancy.
type Service struct {
	logger     *logger.Logger
	repository interfaces.ScheduleRepository
	identities interfaces.IdentityRepository
}

// NewService creates a new schedule service
func NewService(log *logger.Logger, repo interfaces.ScheduleRepository, identities interfaces.IdentityRepository) *Service {
	return &Service{
		logger:     log,
		repository: repo,
		identities: identities,
	}
}

// GetAvailableSlots walks a doctor's working hours for one date and
// marks slots whose exact time string is already booked. Appointments
// whose time string does not line up with a slot boundary are invisible
// here; the slot view is advisory only.
func (s *Service) GetAvailableSlots(doctorID, date string) ([]*types.TimeSlot, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"Invalid date, expected YYYY-MM-DD", nil)
	}

	if _, err := s.identities.GetIdentityByID(doctorID); err != nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "Doctor not found")
	}

	schedules, err := s.repository.GetSchedules(doctorID)
	if err != nil {
		return nil, err
	}

	var daySchedule *types.DoctorSchedule
	for _, sched := range schedules {
		if sched.Weekday == int(day.Weekday()) {
			daySchedule = sched
			break
		}
	}
	if daySchedule == nil {
		// No working hours registered for this weekday
		return []*types.TimeSlot{}, nil
	}

	start, err := time.Parse("15:04", daySchedule.StartTime)
	if err != nil {
		return nil, fmt.Errorf("malformed schedule start time %q: %w", daySchedule.StartTime, err)
	}
	end, err := time.Parse("15:04", daySchedule.EndTime)
	if err != nil {
		return nil, fmt.Errorf("malformed schedule end time %q: %w", daySchedule.EndTime, err)
	}

	slotMins := daySchedule.SlotMins
	if slotMins <= 0 {
		slotMins = 30
	}
	step := time.Duration(slotMins) * time.Minute

	bookedTimes, err := s.repository.GetBookedTimes(doctorID, date)
	if err != nil {
		return nil, err
	}
	booked := make(map[string]bool, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = true
	}

	var slots []*types.TimeSlot
	for current := start; !current.Add(step).After(end); current = current.Add(step) {
		startStr := current.Format("15:04")
		slots = append(slots, &types.TimeSlot{
			DoctorID:  doctorID,
			Date:      day,
			StartTime: startStr,
			EndTime:   current.Add(step).Format("15:04"),
			Booked:    booked[startStr],
		})
	}

	return slots, nil
}

// UpsertSchedule replaces one weekday of working hours. Doctors may only
// edit their own schedule; admins may edit any.
func (s *Service) UpsertSchedule(doctorID string, upsert *types.ScheduleUpsert, caller *types.IdentityClaims) (*types.DoctorSchedule, error) {
	if err := authorizeDoctorEdit(doctorID, caller); err != nil {
		return nil, err
	}

	if _, err := time.Parse("15:04", upsert.StartTime); err != nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"Invalid start time, expected HH:MM", nil)
	}
	if _, err := time.Parse("15:04", upsert.EndTime); err != nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"Invalid end time, expected HH:MM", nil)
	}
	if upsert.Weekday < 0 || upsert.Weekday > 6 {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"Weekday must be between 0 and 6", nil)
	}

	doctor, err := s.identities.GetIdentityByID(doctorID)
	if err != nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "Doctor not found")
	}
	if doctor.Role != types.RoleDoctor {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"Referenced identity is not a doctor", nil)
	}

	now := time.Now()
	schedule := &types.DoctorSchedule{
		ID:        uuid.New().String(),
		DoctorID:  doctorID,
		Weekday:   upsert.Weekday,
		StartTime: upsert.StartTime,
		EndTime:   upsert.EndTime,
		SlotMins:  upsert.SlotMins,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repository.UpsertSchedule(schedule); err != nil {
		return nil, err
	}

	return schedule, nil
}

// SetDoctorAvailability flips the advisory availability flag
func (s *Service) SetDoctorAvailability(doctorID string, available bool, caller *types.IdentityClaims) error {
	if err := authorizeDoctorEdit(doctorID, caller); err != nil {
		return err
	}

	doctor, err := s.identities.GetIdentityByID(doctorID)
	if err != nil {
		return types.NewNotFoundError(types.ErrCodeNotFound, "Doctor not found")
	}
	if doctor.Role != types.RoleDoctor {
		return types.NewValidationError(types.ErrCodeInvalidInput,
			"Referenced identity is not a doctor", nil)
	}

	return s.identities.UpdateIdentity(doctorID, &types.IdentityUpdates{Available: &available})
}

// ListDoctors returns the public doctor directory
func (s *Service) ListDoctors() ([]*types.Identity, error) {
	return s.identities.ListIdentities(types.RoleDoctor, 0, 0)
}

func authorizeDoctorEdit(doctorID string, caller *types.IdentityClaims) error {
	if caller.Role == types.RoleAdmin {
		return nil
	}
	if caller.Role == types.RoleDoctor && caller.IdentityID == doctorID {
		return nil
	}
	return types.NewAuthorizationError(types.ErrCodeForbidden,
		"Not permitted to edit this doctor's schedule")
}
