package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/monitoring"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// MockAppointmentRepository is a mock implementation of AppointmentRepository
type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) CreateAppointment(apt *types.Appointment) error {
	args := m.Called(apt)
	return args.Error(0)
}

func (m *MockAppointmentRepository) GetAppointmentByID(id string) (*types.Appointment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) UpdateAppointment(id string, updates *types.AppointmentUpdates) error {
	args := m.Called(id, updates)
	return args.Error(0)
}

func (m *MockAppointmentRepository) DeleteAppointment(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockAppointmentRepository) GetAppointments(filters *types.AppointmentFilters) ([]*types.Appointment, error) {
	args := m.Called(filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) AppendCancellation(rec *types.CancellationRecord) error {
	args := m.Called(rec)
	return args.Error(0)
}

func (m *MockAppointmentRepository) GetCancellations(appointmentID string) ([]*types.CancellationRecord, error) {
	args := m.Called(appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.CancellationRecord), args.Error(1)
}

// MockIdentityRepository is a mock implementation of IdentityRepository
type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) CreateIdentity(identity *types.Identity) error {
	args := m.Called(identity)
	return args.Error(0)
}

func (m *MockIdentityRepository) GetIdentityByID(id string) (*types.Identity, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Identity), args.Error(1)
}

func (m *MockIdentityRepository) GetIdentityByEmail(role types.Role, email string) (*types.Identity, error) {
	args := m.Called(role, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Identity), args.Error(1)
}

func (m *MockIdentityRepository) GetIdentityByResetToken(token string) (*types.Identity, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Identity), args.Error(1)
}

func (m *MockIdentityRepository) UpdateIdentity(id string, updates *types.IdentityUpdates) error {
	args := m.Called(id, updates)
	return args.Error(0)
}

func (m *MockIdentityRepository) SetOTP(id, code string, expiresAt time.Time) error {
	args := m.Called(id, code, expiresAt)
	return args.Error(0)
}

func (m *MockIdentityRepository) ClearOTP(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockIdentityRepository) SetResetToken(id, token string, expiresAt time.Time) error {
	args := m.Called(id, token, expiresAt)
	return args.Error(0)
}

func (m *MockIdentityRepository) ClearResetToken(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockIdentityRepository) UpdatePasswordHash(id, hash string) error {
	args := m.Called(id, hash)
	return args.Error(0)
}

func (m *MockIdentityRepository) ListIdentities(role types.Role, limit, offset int) ([]*types.Identity, error) {
	args := m.Called(role, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Identity), args.Error(1)
}

func (m *MockIdentityRepository) DeleteIdentity(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// Test setup helper
func setupTestService() (*Service, *MockAppointmentRepository, *MockIdentityRepository) {
	log := logger.New("debug")
	mockRepo := &MockAppointmentRepository{}
	mockIdentities := &MockIdentityRepository{}
	metrics := monitoring.NewMetricsCollector("test")

	service := NewService(log, mockRepo, mockIdentities, metrics)
	return service, mockRepo, mockIdentities
}

func patientCaller(id string) *types.IdentityClaims {
	return &types.IdentityClaims{IdentityID: id, Role: types.RolePatient, Name: "Pat Example"}
}

func doctorCaller(id string) *types.IdentityClaims {
	return &types.IdentityClaims{IdentityID: id, Role: types.RoleDoctor, Name: "Dr Example"}
}

func adminCaller(id string) *types.IdentityClaims {
	return &types.IdentityClaims{IdentityID: id, Role: types.RoleAdmin, Name: "Admin Example"}
}

func notFoundErr() *types.MedicusError {
	return &types.MedicusError{Type: types.ErrorTypeNotFound, Code: types.ErrCodeNotFound, Message: "Appointment not found"}
}

func sampleAppointment() *types.Appointment {
	return &types.Appointment{
		ID:          "apt-1",
		PatientID:   "patient-1",
		DoctorID:    "doctor-1",
		PatientName: "Pat Example",
		DoctorName:  "Dr Example",
		Date:        time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Time:        "10:30 AM",
		Reason:      "Checkup",
		Status:      types.StatusPending,
		Version:     1,
	}
}

func TestCreateAppointment_Success(t *testing.T) {
	service, mockRepo, mockIdentities := setupTestService()

	doctor := &types.Identity{ID: "doctor-1", Role: types.RoleDoctor, Name: "Dr Example"}
	mockIdentities.On("GetIdentityByID", "doctor-1").Return(doctor, nil)
	mockRepo.On("CreateAppointment", mock.AnythingOfType("*types.Appointment")).Return(nil)

	req := &types.AppointmentRequest{
		DoctorID: "doctor-1",
		Date:     "2026-09-10",
		Time:     "10:30 AM",
		Reason:   "Checkup",
	}

	apt, err := service.CreateAppointment(req, patientCaller("patient-1"))

	assert.NoError(t, err)
	assert.NotEmpty(t, apt.ID)
	assert.Equal(t, "patient-1", apt.PatientID)
	assert.Equal(t, "doctor-1", apt.DoctorID)
	assert.Equal(t, "Dr Example", apt.DoctorName)
	assert.Equal(t, types.StatusPending, apt.Status)
	assert.Equal(t, 1, apt.Version)
	// The time-of-day string must be stored exactly as supplied
	assert.Equal(t, "10:30 AM", apt.Time)
	mockRepo.AssertExpectations(t)
}

func TestCreateAppointment_NotAPatient(t *testing.T) {
	service, _, _ := setupTestService()

	req := &types.AppointmentRequest{DoctorID: "doctor-1", Date: "2026-09-10", Time: "10:00", Reason: "Checkup"}

	_, err := service.CreateAppointment(req, doctorCaller("doctor-1"))

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrorTypeAuthorization, medicusErr.Type)
}

func TestCreateAppointment_UnknownDoctor(t *testing.T) {
	service, _, mockIdentities := setupTestService()

	mockIdentities.On("GetIdentityByID", "missing").Return(nil, notFoundErr())

	req := &types.AppointmentRequest{DoctorID: "missing", Date: "2026-09-10", Time: "10:00", Reason: "Checkup"}

	_, err := service.CreateAppointment(req, patientCaller("patient-1"))

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrorTypeNotFound, medicusErr.Type)
}

func TestCreateAppointment_BadDate(t *testing.T) {
	service, _, _ := setupTestService()

	req := &types.AppointmentRequest{DoctorID: "doctor-1", Date: "10/09/2026", Time: "10:00", Reason: "Checkup"}

	_, err := service.CreateAppointment(req, patientCaller("patient-1"))

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrorTypeValidation, medicusErr.Type)
}

func TestCreateAppointment_MissingReason(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	for _, reason := range []string{"", "   "} {
		req := &types.AppointmentRequest{DoctorID: "doctor-1", Date: "2026-09-10", Time: "10:00", Reason: reason}

		_, err := service.CreateAppointment(req, patientCaller("patient-1"))

		assert.Error(t, err)
		medicusErr := err.(*types.MedicusError)
		assert.Equal(t, types.ErrorTypeValidation, medicusErr.Type)
	}
	mockRepo.AssertNotCalled(t, "CreateAppointment", mock.Anything)
}

func TestGetAppointment_NotFound(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	mockRepo.On("GetAppointmentByID", "missing").Return(nil, notFoundErr())

	_, err := service.GetAppointment("missing")

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrorTypeNotFound, medicusErr.Type)
}

func TestUpdateAppointment_OwningPatient(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)
	mockRepo.On("UpdateAppointment", "apt-1", mock.AnythingOfType("*types.AppointmentUpdates")).Return(nil)

	notes := "bring previous reports"
	_, err := service.UpdateAppointment("apt-1", &types.AppointmentUpdates{Notes: &notes}, patientCaller("patient-1"))

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUpdateAppointment_UnrelatedPatientForbidden(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)

	notes := "nope"
	_, err := service.UpdateAppointment("apt-1", &types.AppointmentUpdates{Notes: &notes}, patientCaller("patient-2"))

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrorTypeAuthorization, medicusErr.Type)
	mockRepo.AssertNotCalled(t, "UpdateAppointment", mock.Anything, mock.Anything)
}

func TestUpdateAppointment_UnrelatedDoctorForbidden(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)

	status := types.StatusConfirmed
	_, err := service.UpdateAppointment("apt-1", &types.AppointmentUpdates{Status: &status}, doctorCaller("doctor-9"))

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrorTypeAuthorization, medicusErr.Type)
}

func TestUpdateAppointment_AdminAllowed(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)
	mockRepo.On("UpdateAppointment", "apt-1", mock.AnythingOfType("*types.AppointmentUpdates")).Return(nil)

	status := types.StatusConfirmed
	_, err := service.UpdateAppointment("apt-1", &types.AppointmentUpdates{Status: &status}, adminCaller("admin-1"))

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUpdateAppointment_InvalidTransition(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	apt.Status = types.StatusCompleted
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)

	status := types.StatusScheduled
	_, err := service.UpdateAppointment("apt-1", &types.AppointmentUpdates{Status: &status}, adminCaller("admin-1"))

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrCodeInvalidTransition, medicusErr.Code)
}

func TestUpdateAppointment_StaleVersion(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	apt.Version = 3
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)

	stale := 2
	notes := "x"
	_, err := service.UpdateAppointment("apt-1", &types.AppointmentUpdates{Notes: &notes, Version: &stale}, patientCaller("patient-1"))

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrCodeStaleVersion, medicusErr.Code)
	mockRepo.AssertNotCalled(t, "UpdateAppointment", mock.Anything, mock.Anything)
}

func TestCancelAppointment_AssignedDoctor(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)
	mockRepo.On("UpdateAppointment", "apt-1", mock.MatchedBy(func(u *types.AppointmentUpdates) bool {
		return u.Status != nil && *u.Status == types.StatusCancelled && u.Notes != nil
	})).Return(nil)
	mockRepo.On("AppendCancellation", mock.MatchedBy(func(rec *types.CancellationRecord) bool {
		return rec.AppointmentID == "apt-1" && rec.ActorRole == types.RoleDoctor && rec.Reason == "patient no-show"
	})).Return(nil)

	_, err := service.CancelAppointment("apt-1", "patient no-show", nil, doctorCaller("doctor-1"))

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCancelAppointment_AlreadyCancelledIsIdempotent(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	apt.Status = types.StatusCancelled
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)
	mockRepo.On("UpdateAppointment", "apt-1", mock.AnythingOfType("*types.AppointmentUpdates")).Return(nil)
	mockRepo.On("AppendCancellation", mock.AnythingOfType("*types.CancellationRecord")).Return(nil)

	_, err := service.CancelAppointment("apt-1", "changed my mind", nil, patientCaller("patient-1"))

	assert.NoError(t, err)
	// A second cancellation still lands in the log
	mockRepo.AssertCalled(t, "AppendCancellation", mock.AnythingOfType("*types.CancellationRecord"))
}

func TestCancelAppointment_UnrelatedPatientForbidden(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)

	_, err := service.CancelAppointment("apt-1", "not mine", nil, patientCaller("patient-99"))

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrorTypeAuthorization, medicusErr.Type)
	mockRepo.AssertNotCalled(t, "AppendCancellation", mock.Anything)
}

func TestCancelAppointment_NotFound(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	mockRepo.On("GetAppointmentByID", "missing").Return(nil, notFoundErr())

	_, err := service.CancelAppointment("missing", "whatever", nil, adminCaller("admin-1"))

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrorTypeNotFound, medicusErr.Type)
}

func TestCancelAppointment_StaleVersion(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	apt.Version = 3
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)

	stale := 2
	_, err := service.CancelAppointment("apt-1", "too late", &stale, patientCaller("patient-1"))

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrCodeStaleVersion, medicusErr.Code)
	mockRepo.AssertNotCalled(t, "UpdateAppointment", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "AppendCancellation", mock.Anything)
}

func TestCancelAppointment_MatchingVersionReachesRepository(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)
	mockRepo.On("UpdateAppointment", "apt-1", mock.MatchedBy(func(u *types.AppointmentUpdates) bool {
		// The supplied version travels down so the UPDATE itself is guarded
		return u.Version != nil && *u.Version == 1
	})).Return(nil)
	mockRepo.On("AppendCancellation", mock.AnythingOfType("*types.CancellationRecord")).Return(nil)

	current := 1
	_, err := service.CancelAppointment("apt-1", "travel", &current, patientCaller("patient-1"))

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestRescheduleAppointment_StaleVersion(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	apt.Version = 5
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)

	stale := 4
	_, err := service.RescheduleAppointment("apt-1", "2026-10-01", "09:00", &stale, patientCaller("patient-1"))

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrCodeStaleVersion, medicusErr.Code)
	mockRepo.AssertNotCalled(t, "UpdateAppointment", mock.Anything, mock.Anything)
}

func TestRescheduleAppointment_StoresTimeVerbatim(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)
	mockRepo.On("UpdateAppointment", "apt-1", mock.MatchedBy(func(u *types.AppointmentUpdates) bool {
		return u.Time != nil && *u.Time == "half past nine" && u.Status == nil
	})).Return(nil)

	_, err := service.RescheduleAppointment("apt-1", "2026-10-01", "half past nine", nil, patientCaller("patient-1"))

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestRescheduleAppointment_AdminBypass(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)
	mockRepo.On("UpdateAppointment", "apt-1", mock.AnythingOfType("*types.AppointmentUpdates")).Return(nil)

	_, err := service.RescheduleAppointment("apt-1", "2026-10-02", "09:00", nil, adminCaller("admin-1"))

	assert.NoError(t, err)
}

func TestDeleteAppointment_AdminBypass(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)
	mockRepo.On("DeleteAppointment", "apt-1").Return(nil)

	err := service.DeleteAppointment("apt-1", adminCaller("admin-1"))

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestDeleteAppointment_UnrelatedDoctorForbidden(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	apt := sampleAppointment()
	mockRepo.On("GetAppointmentByID", "apt-1").Return(apt, nil)

	err := service.DeleteAppointment("apt-1", doctorCaller("doctor-2"))

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "DeleteAppointment", mock.Anything)
}

func TestListPatientAppointments_ScopedToCaller(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	expected := []*types.Appointment{sampleAppointment()}
	mockRepo.On("GetAppointments", mock.MatchedBy(func(f *types.AppointmentFilters) bool {
		return f.PatientID == "patient-1" && f.DoctorID == ""
	})).Return(expected, nil)

	appointments, err := service.ListPatientAppointments("patient-1")

	assert.NoError(t, err)
	assert.Len(t, appointments, 1)
	mockRepo.AssertExpectations(t)
}

func TestListDoctorAppointments_ScopedToCaller(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	expected := []*types.Appointment{sampleAppointment()}
	mockRepo.On("GetAppointments", mock.MatchedBy(func(f *types.AppointmentFilters) bool {
		return f.DoctorID == "doctor-1" && f.PatientID == ""
	})).Return(expected, nil)

	appointments, err := service.ListDoctorAppointments("doctor-1")

	assert.NoError(t, err)
	assert.Len(t, appointments, 1)
	mockRepo.AssertExpectations(t)
}

func TestGetCancellations_NotFoundAppointment(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	mockRepo.On("GetAppointmentByID", "missing").Return(nil, notFoundErr())

	_, err := service.GetCancellations("missing")

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "GetCancellations", mock.Anything)
}

func TestAppendCancellationNote(t *testing.T) {
	rec := &types.CancellationRecord{
		ActorRole: types.RolePatient,
		Reason:    "travel",
		CreatedAt: time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC),
	}

	note := appendCancellationNote("", rec)
	assert.Equal(t, "Cancelled by patient on 2026-09-01 14:30: travel", note)

	stacked := appendCancellationNote(note, rec)
	assert.Contains(t, stacked, "\n")
}
