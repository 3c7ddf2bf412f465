package interfaces

import (
	"time"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// IdentityService defines the interface for account and session management
type IdentityService interface {
	// Registration and authentication
	Register(role types.Role, req *types.RegistrationRequest) (*types.Identity, error)
	Authenticate(role types.Role, creds *types.Credentials) (*types.Identity, *types.AuthToken, error)

	// One-time credentials
	RequestOTP(req *types.OTPRequest) error
	VerifyOTP(verification *types.OTPVerification) (*types.Identity, error)

	// Password reset
	RequestPasswordReset(req *types.PasswordResetRequest) error
	ResetPassword(reset *types.PasswordReset) error

	// Profile
	GetIdentity(id string) (*types.Identity, error)
	UpdateIdentity(id string, updates *types.IdentityUpdates, caller *types.IdentityClaims) (*types.Identity, error)

	// Administration
	ListIdentities(role types.Role) ([]*types.Identity, error)
	DeleteIdentity(id string, caller *types.IdentityClaims) error
}

// IdentityRepository defines the interface for identity persistence
type IdentityRepository interface {
	CreateIdentity(identity *types.Identity) error
	GetIdentityByID(id string) (*types.Identity, error)
	GetIdentityByEmail(role types.Role, email string) (*types.Identity, error)
	GetIdentityByResetToken(token string) (*types.Identity, error)
	UpdateIdentity(id string, updates *types.IdentityUpdates) error
	SetOTP(id, code string, expiresAt time.Time) error
	ClearOTP(id string) error
	SetResetToken(id, token string, expiresAt time.Time) error
	ClearResetToken(id string) error
	UpdatePasswordHash(id, hash string) error
	ListIdentities(role types.Role, limit, offset int) ([]*types.Identity, error)
	DeleteIdentity(id string) error
}

// PasswordManager defines the interface for credential hashing
type PasswordManager interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hashedPassword, password string) (bool, error)
}

// TokenIssuer defines the interface for session token issue and validation
type TokenIssuer interface {
	Issue(identity *types.Identity) (*types.AuthToken, error)
	Validate(token string) (*types.IdentityClaims, error)
}

// Mailer defines the interface for outbound mail
type Mailer interface {
	Send(to, subject, body string) error
}

// NotificationService defines the interface for in-app notifications.
// Appointment operations never call this; notification is caller-driven.
type NotificationService interface {
	CreateNotification(req *types.NotificationRequest, caller *types.IdentityClaims) (*types.Notification, error)
	ListNotifications(target *types.IdentityClaims) ([]*types.Notification, error)
	MarkRead(notificationID string, caller *types.IdentityClaims) error
}

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	CreateNotification(n *types.Notification) error
	GetNotificationByID(id string) (*types.Notification, error)
	GetNotifications(targetKind types.Role, targetID string) ([]*types.Notification, error)
	MarkRead(id string) error
}
