package types

import "time"

// Role represents the access tier of an identity
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether r is one of the three supported roles.
func ValidRole(r Role) bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Identity represents a registered account. A single table carries all
// three roles; Role discriminates, and ID equality is only ever checked
// within a role namespace.
type Identity struct {
	ID           string     `json:"id"`
	Role         Role       `json:"role"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Phone        string     `json:"phone,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	// Doctor-only attributes
	Specialty string  `json:"specialty,omitempty"`
	Fees      float64 `json:"fees,omitempty"`
	Available bool    `json:"available"`
	// One-time credentials, never serialized
	OTPCode        string     `json:"-"`
	OTPExpiresAt   *time.Time `json:"-"`
	ResetToken     string     `json:"-"`
	ResetExpiresAt *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IdentityClaims represents the authenticated caller extracted from a token
type IdentityClaims struct {
	IdentityID string `json:"identity_id"`
	Role       Role   `json:"role"`
	Email      string `json:"email"`
	Name       string `json:"name"`
}

// RegistrationRequest represents an account registration payload
type RegistrationRequest struct {
	Name        string  `json:"name" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8"`
	Phone       string  `json:"phone"`
	Gender      string  `json:"gender"`
	DateOfBirth string  `json:"date_of_birth"`
	Specialty   string  `json:"specialty"`
	Fees        float64 `json:"fees"`
}

// Credentials represents a login payload
type Credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthToken represents an issued session token
type AuthToken struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IdentityUpdates represents a partial profile update; nil fields are ignored
type IdentityUpdates struct {
	Name      *string  `json:"name,omitempty"`
	Email     *string  `json:"email,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Gender    *string  `json:"gender,omitempty"`
	Specialty *string  `json:"specialty,omitempty"`
	Fees      *float64 `json:"fees,omitempty"`
	Available *bool    `json:"available,omitempty"`
}

// OTPRequest asks for a one-time code to be mailed
type OTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  Role   `json:"role" binding:"required"`
}

// OTPVerification presents a mailed one-time code
type OTPVerification struct {
	Email string `json:"email" binding:"required,email"`
	Role  Role   `json:"role" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// PasswordResetRequest starts the forgot-password flow
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  Role   `json:"role" binding:"required"`
}

// PasswordReset completes the forgot-password flow
type PasswordReset struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}
