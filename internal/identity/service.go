package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/config"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/interfaces"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// Service implements account and session management
type Service struct {
	config     *config.Config
	logger     *logger.Logger
	repository interfaces.IdentityRepository
	passwords  interfaces.PasswordManager
	tokens     interfaces.TokenIssuer
	mailer     interfaces.Mailer
}

// NewService creates a new identity service
func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo interfaces.IdentityRepository,
	passwords interfaces.PasswordManager,
	tokens interfaces.TokenIssuer,
	mailer interfaces.Mailer,
) *Service {
	return &Service{
		config:     cfg,
		logger:     log,
		repository: repo,
		passwords:  passwords,
		tokens:     tokens,
		mailer:     mailer,
	}
}

// Register creates a new account in the given role namespace
func (s *Service) Register(role types.Role, req *types.RegistrationRequest) (*types.Identity, error) {
	if !types.ValidRole(role) {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "Unknown role", nil)
	}
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	// Duplicate check inside the role namespace; the unique index is the
	// backstop for concurrent registrations.
	if _, err := s.repository.GetIdentityByEmail(role, req.Email); err == nil {
		return nil, types.NewConflictError(types.ErrCodeDuplicateEmail,
			"An account with this email already exists", nil)
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "Failed to hash password", err)
	}

	now := time.Now()
	identity := &types.Identity{
		ID:           uuid.New().String(),
		Role:         role,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Gender:       req.Gender,
		Specialty:    req.Specialty,
		Fees:         req.Fees,
		Available:    role == types.RoleDoctor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput,
				"Invalid date of birth, expected YYYY-MM-DD", nil)
		}
		identity.DateOfBirth = &dob
	}

	if err := s.repository.CreateIdentity(identity); err != nil {
		return nil, err
	}

	s.logger.Audit(identity.ID, "register", "identity", true, map[string]interface{}{
		"role": role,
	})
	return identity, nil
}

// Authenticate verifies credentials and issues a session token
func (s *Service) Authenticate(role types.Role, creds *types.Credentials) (*types.Identity, *types.AuthToken, error) {
	identity, err := s.repository.GetIdentityByEmail(role, creds.Email)
	if err != nil {
		// Do not reveal whether the account exists
		return nil, nil, types.NewAuthenticationError(types.ErrCodeInvalidCredentials,
			"Invalid email or password")
	}

	ok, err := s.passwords.VerifyPassword(identity.PasswordHash, creds.Password)
	if err != nil {
		return nil, nil, types.NewInternalError(types.ErrCodeInternalError, "Failed to verify password", err)
	}
	if !ok {
		s.logger.Security("login_failed", identity.ID, map[string]interface{}{"role": role})
		return nil, nil, types.NewAuthenticationError(types.ErrCodeInvalidCredentials,
			"Invalid email or password")
	}

	token, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, nil, types.NewInternalError(types.ErrCodeInternalError, "Failed to issue token", err)
	}

	s.logger.Audit(identity.ID, "login", "session", true, map[string]interface{}{"role": role})
	return identity, token, nil
}

// RequestOTP generates a one-time code and mails it to the account
func (s *Service) RequestOTP(req *types.OTPRequest) error {
	identity, err := s.repository.GetIdentityByEmail(req.Role, req.Email)
	if err != nil {
		return err
	}

	code, err := GenerateOTP(s.config.OTP.Digits)
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "Failed to generate code", err)
	}

	expiresAt := time.Now().Add(time.Duration(s.config.OTP.TTLSeconds) * time.Second)
	if err := s.repository.SetOTP(identity.ID, code, expiresAt); err != nil {
		return err
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code, s.config.OTP.TTLSeconds/60)
	if err := s.mailer.Send(identity.Email, "Your verification code", body); err != nil {
		// The stored code stays valid; the caller may retry delivery
		return types.NewInternalError(types.ErrCodeExternalError, "Failed to send verification email", err)
	}

	return nil
}

// VerifyOTP checks a mailed one-time code and consumes it
func (s *Service) VerifyOTP(verification *types.OTPVerification) (*types.Identity, error) {
	identity, err := s.repository.GetIdentityByEmail(verification.Role, verification.Email)
	if err != nil {
		return nil, err
	}

	if identity.OTPCode == "" || identity.OTPCode != verification.Code {
		return nil, types.NewAuthenticationError(types.ErrCodeInvalidOTP, "Invalid verification code")
	}
	if identity.OTPExpiresAt == nil || identity.OTPExpiresAt.Before(time.Now()) {
		return nil, types.NewAuthenticationError(types.ErrCodeOTPExpired, "Verification code has expired")
	}

	if err := s.repository.ClearOTP(identity.ID); err != nil {
		return nil, err
	}

	s.logger.Audit(identity.ID, "otp_verify", "identity", true, nil)
	return identity, nil
}

// RequestPasswordReset issues a reset token and mails a reset link
func (s *Service) RequestPasswordReset(req *types.PasswordResetRequest) error {
	identity, err := s.repository.GetIdentityByEmail(req.Role, req.Email)
	if err != nil {
		return err
	}

	token := uuid.New().String()
	expiresAt := time.Now().Add(time.Duration(s.config.PasswordReset.TTLSeconds) * time.Second)
	if err := s.repository.SetResetToken(identity.ID, token, expiresAt); err != nil {
		return err
	}

	link := fmt.Sprintf("%s?token=%s", s.config.PasswordReset.LinkBase, token)
	body := fmt.Sprintf("A password reset was requested for this account. Use the link below within one hour:\n\n%s", link)
	if err := s.mailer.Send(identity.Email, "Reset your password", body); err != nil {
		return types.NewInternalError(types.ErrCodeExternalError, "Failed to send reset email", err)
	}

	return nil
}

// ResetPassword completes the reset flow and invalidates the token
func (s *Service) ResetPassword(reset *types.PasswordReset) error {
	identity, err := s.repository.GetIdentityByResetToken(reset.Token)
	if err != nil {
		if medicusErr, ok := err.(*types.MedicusError); ok && medicusErr.Type == types.ErrorTypeNotFound {
			return types.NewAuthenticationError(types.ErrCodeInvalidResetToken, "Invalid reset token")
		}
		return err
	}

	if identity.ResetExpiresAt == nil || identity.ResetExpiresAt.Before(time.Now()) {
		return types.NewAuthenticationError(types.ErrCodeResetTokenExpired, "Reset token has expired")
	}

	hash, err := s.passwords.HashPassword(reset.NewPassword)
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "Failed to hash password", err)
	}

	if err := s.repository.UpdatePasswordHash(identity.ID, hash); err != nil {
		return err
	}
	if err := s.repository.ClearResetToken(identity.ID); err != nil {
		return err
	}

	s.logger.Audit(identity.ID, "password_reset", "identity", true, nil)
	return nil
}

// GetIdentity retrieves one identity by id
func (s *Service) GetIdentity(id string) (*types.Identity, error) {
	return s.repository.GetIdentityByID(id)
}

// UpdateIdentity applies a partial profile update. Callers may only
// update themselves unless they are an admin.
func (s *Service) UpdateIdentity(id string, updates *types.IdentityUpdates, caller *types.IdentityClaims) (*types.Identity, error) {
	if caller.Role != types.RoleAdmin && caller.IdentityID != id {
		return nil, types.NewAuthorizationError(types.ErrCodeForbidden,
			"Not permitted to update this account")
	}

	if err := s.repository.UpdateIdentity(id, updates); err != nil {
		return nil, err
	}
	return s.repository.GetIdentityByID(id)
}

// ListIdentities retrieves all identities in one role namespace
func (s *Service) ListIdentities(role types.Role) ([]*types.Identity, error) {
	if !types.ValidRole(role) {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "Unknown role", nil)
	}
	return s.repository.ListIdentities(role, 0, 0)
}

// DeleteIdentity removes an account. Admin only, and admins cannot
// delete themselves.
func (s *Service) DeleteIdentity(id string, caller *types.IdentityClaims) error {
	if caller.Role != types.RoleAdmin {
		return types.NewAuthorizationError(types.ErrCodeForbidden, "Admin access required")
	}
	if caller.IdentityID == id {
		return types.NewValidationError(types.ErrCodeInvalidInput,
			"Cannot delete the account you are signed in with", nil)
	}
	return s.repository.DeleteIdentity(id)
}

func validateRegistration(req *types.RegistrationRequest) error {
	if req.Name == "" {
		return types.NewValidationError(types.ErrCodeValidationFailed, "Name is required", nil)
	}
	if req.Email == "" {
		return types.NewValidationError(types.ErrCodeValidationFailed, "Email is required", nil)
	}
	if len(req.Password) < 8 {
		return types.NewValidationError(types.ErrCodeValidationFailed,
			"Password must be at least 8 characters", nil)
	}
	return nil
}
