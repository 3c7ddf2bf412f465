package identity

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/config"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

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

// MockMailer is a mock implementation of Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		OTP: config.OTPConfig{Digits: 6, TTLSeconds: 300},
		PasswordReset: config.PasswordResetConfig{
			TTLSeconds: 3600,
			LinkBase:   "https://medicus.example/reset",
		},
		JWT: config.JWTConfig{
			SecretKey:      "test-secret-key-for-tests-only",
			AccessTokenTTL: 3600,
			Issuer:         "medicus-api",
			Audience:       "medicus",
			CookieName:     "jwt",
		},
	}
}

func setupTestService() (*Service, *MockIdentityRepository, *MockMailer) {
	cfg := testConfig()
	log := logger.New("debug")
	mockRepo := &MockIdentityRepository{}
	mockMailer := &MockMailer{}
	passwords := NewPasswordManager()
	tokens := NewTokenIssuer(&cfg.JWT)

	service := NewService(cfg, log, mockRepo, passwords, tokens, mockMailer)
	return service, mockRepo, mockMailer
}

func notFoundErr() *types.MedicusError {
	return &types.MedicusError{Type: types.ErrorTypeNotFound, Code: types.ErrCodeNotFound, Message: "Identity not found"}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := NewPasswordManager().HashPassword(password)
	assert.NoError(t, err)
	return hash
}

func TestRegister_Success(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	mockRepo.On("GetIdentityByEmail", types.RolePatient, "pat@example.com").Return(nil, notFoundErr())
	mockRepo.On("CreateIdentity", mock.AnythingOfType("*types.Identity")).Return(nil)

	req := &types.RegistrationRequest{
		Name:     "Pat Example",
		Email:    "pat@example.com",
		Password: "VerySecret1",
	}

	identity, err := service.Register(types.RolePatient, req)

	assert.NoError(t, err)
	assert.NotEmpty(t, identity.ID)
	assert.Equal(t, types.RolePatient, identity.Role)
	assert.False(t, identity.Available)
	assert.NotEqual(t, "VerySecret1", identity.PasswordHash)
	mockRepo.AssertExpectations(t)
}

func TestRegister_DoctorStartsAvailable(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	mockRepo.On("GetIdentityByEmail", types.RoleDoctor, "doc@example.com").Return(nil, notFoundErr())
	mockRepo.On("CreateIdentity", mock.AnythingOfType("*types.Identity")).Return(nil)

	req := &types.RegistrationRequest{
		Name:      "Dr Example",
		Email:     "doc@example.com",
		Password:  "VerySecret1",
		Specialty: "Cardiology",
	}

	identity, err := service.Register(types.RoleDoctor, req)

	assert.NoError(t, err)
	assert.True(t, identity.Available)
	assert.Equal(t, "Cardiology", identity.Specialty)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	existing := &types.Identity{ID: "p-1", Role: types.RolePatient, Email: "pat@example.com"}
	mockRepo.On("GetIdentityByEmail", types.RolePatient, "pat@example.com").Return(existing, nil)

	req := &types.RegistrationRequest{Name: "Pat", Email: "pat@example.com", Password: "VerySecret1"}

	_, err := service.Register(types.RolePatient, req)

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrCodeDuplicateEmail, medicusErr.Code)
	mockRepo.AssertNotCalled(t, "CreateIdentity", mock.Anything)
}

func TestRegister_SameEmailDifferentRole(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	// The email is taken in the patient namespace but free in the doctor one
	mockRepo.On("GetIdentityByEmail", types.RoleDoctor, "shared@example.com").Return(nil, notFoundErr())
	mockRepo.On("CreateIdentity", mock.AnythingOfType("*types.Identity")).Return(nil)

	req := &types.RegistrationRequest{Name: "Dr Shared", Email: "shared@example.com", Password: "VerySecret1"}

	_, err := service.Register(types.RoleDoctor, req)

	assert.NoError(t, err)
}

func TestRegister_ShortPassword(t *testing.T) {
	service, _, _ := setupTestService()

	req := &types.RegistrationRequest{Name: "Pat", Email: "pat@example.com", Password: "short"}

	_, err := service.Register(types.RolePatient, req)

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrorTypeValidation, medicusErr.Type)
}

func TestRegister_UnknownRole(t *testing.T) {
	service, _, _ := setupTestService()

	req := &types.RegistrationRequest{Name: "X", Email: "x@example.com", Password: "VerySecret1"}

	_, err := service.Register(types.Role("superuser"), req)

	assert.Error(t, err)
}

func TestAuthenticate_Success(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	identity := &types.Identity{
		ID:           "p-1",
		Role:         types.RolePatient,
		Name:         "Pat Example",
		Email:        "pat@example.com",
		PasswordHash: mustHash(t, "VerySecret1"),
	}
	mockRepo.On("GetIdentityByEmail", types.RolePatient, "pat@example.com").Return(identity, nil)

	got, token, err := service.Authenticate(types.RolePatient, &types.Credentials{
		Email:    "pat@example.com",
		Password: "VerySecret1",
	})

	assert.NoError(t, err)
	assert.Equal(t, "p-1", got.ID)
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, "Bearer", token.TokenType)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	identity := &types.Identity{
		ID:           "p-1",
		Role:         types.RolePatient,
		Email:        "pat@example.com",
		PasswordHash: mustHash(t, "VerySecret1"),
	}
	mockRepo.On("GetIdentityByEmail", types.RolePatient, "pat@example.com").Return(identity, nil)

	_, _, err := service.Authenticate(types.RolePatient, &types.Credentials{
		Email:    "pat@example.com",
		Password: "WrongPassword",
	})

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrCodeInvalidCredentials, medicusErr.Code)
}

func TestAuthenticate_UnknownAccountSameError(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	mockRepo.On("GetIdentityByEmail", types.RolePatient, "ghost@example.com").Return(nil, notFoundErr())

	_, _, err := service.Authenticate(types.RolePatient, &types.Credentials{
		Email:    "ghost@example.com",
		Password: "anything",
	})

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	// Same opaque error as a wrong password
	assert.Equal(t, types.ErrCodeInvalidCredentials, medicusErr.Code)
}

func TestRequestOTP_StoresCodeAndMails(t *testing.T) {
	service, mockRepo, mockMailer := setupTestService()

	identity := &types.Identity{ID: "p-1", Role: types.RolePatient, Email: "pat@example.com"}
	mockRepo.On("GetIdentityByEmail", types.RolePatient, "pat@example.com").Return(identity, nil)

	var storedCode string
	mockRepo.On("SetOTP", "p-1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) { storedCode = args.String(1) }).Return(nil)
	mockMailer.On("Send", "pat@example.com", "Your verification code", mock.AnythingOfType("string")).Return(nil)

	err := service.RequestOTP(&types.OTPRequest{Role: types.RolePatient, Email: "pat@example.com"})

	assert.NoError(t, err)
	assert.Len(t, storedCode, 6)
	mockMailer.AssertExpectations(t)
}

func TestRequestOTP_MailFailureKeepsCode(t *testing.T) {
	service, mockRepo, mockMailer := setupTestService()

	identity := &types.Identity{ID: "p-1", Role: types.RolePatient, Email: "pat@example.com"}
	mockRepo.On("GetIdentityByEmail", types.RolePatient, "pat@example.com").Return(identity, nil)
	mockRepo.On("SetOTP", "p-1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	mockMailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err := service.RequestOTP(&types.OTPRequest{Role: types.RolePatient, Email: "pat@example.com"})

	assert.Error(t, err)
	// The code was stored before the delivery attempt
	mockRepo.AssertCalled(t, "SetOTP", "p-1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time"))
	mockRepo.AssertNotCalled(t, "ClearOTP", mock.Anything)
}

func TestVerifyOTP_Success(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	expires := time.Now().Add(2 * time.Minute)
	identity := &types.Identity{
		ID:           "p-1",
		Role:         types.RolePatient,
		Email:        "pat@example.com",
		OTPCode:      "123456",
		OTPExpiresAt: &expires,
	}
	mockRepo.On("GetIdentityByEmail", types.RolePatient, "pat@example.com").Return(identity, nil)
	mockRepo.On("ClearOTP", "p-1").Return(nil)

	got, err := service.VerifyOTP(&types.OTPVerification{
		Role: types.RolePatient, Email: "pat@example.com", Code: "123456",
	})

	assert.NoError(t, err)
	assert.Equal(t, "p-1", got.ID)
	// Single use: the stored code is cleared on success
	mockRepo.AssertCalled(t, "ClearOTP", "p-1")
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	expires := time.Now().Add(2 * time.Minute)
	identity := &types.Identity{
		ID: "p-1", Role: types.RolePatient, Email: "pat@example.com",
		OTPCode: "123456", OTPExpiresAt: &expires,
	}
	mockRepo.On("GetIdentityByEmail", types.RolePatient, "pat@example.com").Return(identity, nil)

	_, err := service.VerifyOTP(&types.OTPVerification{
		Role: types.RolePatient, Email: "pat@example.com", Code: "999999",
	})

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrCodeInvalidOTP, medicusErr.Code)
	mockRepo.AssertNotCalled(t, "ClearOTP", mock.Anything)
}

func TestVerifyOTP_Expired(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	expires := time.Now().Add(-1 * time.Minute)
	identity := &types.Identity{
		ID: "p-1", Role: types.RolePatient, Email: "pat@example.com",
		OTPCode: "123456", OTPExpiresAt: &expires,
	}
	mockRepo.On("GetIdentityByEmail", types.RolePatient, "pat@example.com").Return(identity, nil)

	_, err := service.VerifyOTP(&types.OTPVerification{
		Role: types.RolePatient, Email: "pat@example.com", Code: "123456",
	})

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrCodeOTPExpired, medicusErr.Code)
}

func TestVerifyOTP_NoOutstandingCode(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	identity := &types.Identity{ID: "p-1", Role: types.RolePatient, Email: "pat@example.com"}
	mockRepo.On("GetIdentityByEmail", types.RolePatient, "pat@example.com").Return(identity, nil)

	_, err := service.VerifyOTP(&types.OTPVerification{
		Role: types.RolePatient, Email: "pat@example.com", Code: "123456",
	})

	assert.Error(t, err)
}

func TestRequestPasswordReset_MailsLink(t *testing.T) {
	service, mockRepo, mockMailer := setupTestService()

	identity := &types.Identity{ID: "p-1", Role: types.RolePatient, Email: "pat@example.com"}
	mockRepo.On("GetIdentityByEmail", types.RolePatient, "pat@example.com").Return(identity, nil)
	mockRepo.On("SetResetToken", "p-1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	mockMailer.On("Send", "pat@example.com", "Reset your password", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "https://medicus.example/reset?token=")
	})).Return(nil)

	err := service.RequestPasswordReset(&types.PasswordResetRequest{
		Role: types.RolePatient, Email: "pat@example.com",
	})

	assert.NoError(t, err)
	mockMailer.AssertExpectations(t)
}

func TestResetPassword_Success(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	expires := time.Now().Add(30 * time.Minute)
	identity := &types.Identity{ID: "p-1", Role: types.RolePatient, ResetToken: "tok-1", ResetExpiresAt: &expires}
	mockRepo.On("GetIdentityByResetToken", "tok-1").Return(identity, nil)
	mockRepo.On("UpdatePasswordHash", "p-1", mock.AnythingOfType("string")).Return(nil)
	mockRepo.On("ClearResetToken", "p-1").Return(nil)

	err := service.ResetPassword(&types.PasswordReset{Token: "tok-1", NewPassword: "BrandNewSecret1"})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	expires := time.Now().Add(-5 * time.Minute)
	identity := &types.Identity{ID: "p-1", Role: types.RolePatient, ResetToken: "tok-1", ResetExpiresAt: &expires}
	mockRepo.On("GetIdentityByResetToken", "tok-1").Return(identity, nil)

	err := service.ResetPassword(&types.PasswordReset{Token: "tok-1", NewPassword: "BrandNewSecret1"})

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrCodeResetTokenExpired, medicusErr.Code)
	mockRepo.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything)
}

func TestResetPassword_UnknownToken(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	mockRepo.On("GetIdentityByResetToken", "nope").Return(nil, notFoundErr())

	err := service.ResetPassword(&types.PasswordReset{Token: "nope", NewPassword: "BrandNewSecret1"})

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrCodeInvalidResetToken, medicusErr.Code)
}

func TestUpdateIdentity_SelfAllowed(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	identity := &types.Identity{ID: "p-1", Role: types.RolePatient}
	mockRepo.On("UpdateIdentity", "p-1", mock.AnythingOfType("*types.IdentityUpdates")).Return(nil)
	mockRepo.On("GetIdentityByID", "p-1").Return(identity, nil)

	name := "New Name"
	caller := &types.IdentityClaims{IdentityID: "p-1", Role: types.RolePatient}

	_, err := service.UpdateIdentity("p-1", &types.IdentityUpdates{Name: &name}, caller)

	assert.NoError(t, err)
}

func TestUpdateIdentity_OtherAccountForbidden(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	name := "New Name"
	caller := &types.IdentityClaims{IdentityID: "p-2", Role: types.RolePatient}

	_, err := service.UpdateIdentity("p-1", &types.IdentityUpdates{Name: &name}, caller)

	assert.Error(t, err)
	medicusErr := err.(*types.MedicusError)
	assert.Equal(t, types.ErrorTypeAuthorization, medicusErr.Type)
	mockRepo.AssertNotCalled(t, "UpdateIdentity", mock.Anything, mock.Anything)
}

func TestDeleteIdentity_AdminOnly(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	caller := &types.IdentityClaims{IdentityID: "d-1", Role: types.RoleDoctor}

	err := service.DeleteIdentity("p-1", caller)

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "DeleteIdentity", mock.Anything)
}

func TestDeleteIdentity_CannotDeleteSelf(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	caller := &types.IdentityClaims{IdentityID: "a-1", Role: types.RoleAdmin}

	err := service.DeleteIdentity("a-1", caller)

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "DeleteIdentity", mock.Anything)
}

func TestDeleteIdentity_AdminDeletesOther(t *testing.T) {
	service, mockRepo, _ := setupTestService()

	mockRepo.On("DeleteIdentity", "p-1").Return(nil)
	caller := &types.IdentityClaims{IdentityID: "a-1", Role: types.RoleAdmin}

	err := service.DeleteIdentity("p-1", caller)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
