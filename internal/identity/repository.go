package identity

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/database"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

const identityColumns = `id, role, name, email, password_hash, phone, gender, date_of_birth,
		specialty, fees, available, otp_code, otp_expires_at, reset_token, reset_expires_at,
		created_at, updated_at`

// Repository implements identity persistence
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new identity repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// CreateIdentity inserts a new identity row
func (r *Repository) CreateIdentity(identity *types.Identity) error {
	query := `
		INSERT INTO identities (id, role, name, email, password_hash, phone, gender,
			date_of_birth, specialty, fees, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(query,
		identity.ID,
		identity.Role,
		identity.Name,
		identity.Email,
		identity.PasswordHash,
		identity.Phone,
		identity.Gender,
		identity.DateOfBirth,
		identity.Specialty,
		identity.Fees,
		identity.Available,
		identity.CreatedAt,
		identity.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return &types.MedicusError{
					Type:    types.ErrorTypeConflict,
					Code:    types.ErrCodeDuplicateEmail,
					Message: "An account with this email already exists",
				}
			}
		}
		return fmt.Errorf("failed to create identity: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"identity_id": identity.ID,
		"role":        identity.Role,
	}).Info("Identity created successfully")
	return nil
}

// GetIdentityByID retrieves an identity by ID
func (r *Repository) GetIdentityByID(id string) (*types.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	return r.scanIdentity(r.db.QueryRow(query, id))
}

// GetIdentityByEmail retrieves an identity by email within a role namespace
func (r *Repository) GetIdentityByEmail(role types.Role, email string) (*types.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE role = $1 AND email = $2`
	return r.scanIdentity(r.db.QueryRow(query, role, email))
}

// GetIdentityByResetToken retrieves an identity by its pending reset token
func (r *Repository) GetIdentityByResetToken(token string) (*types.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE reset_token = $1`
	return r.scanIdentity(r.db.QueryRow(query, token))
}

func (r *Repository) scanIdentity(row *sql.Row) (*types.Identity, error) {
	var identity types.Identity
	var phone, gender, specialty, otpCode, resetToken sql.NullString
	var dob, otpExpires, resetExpires sql.NullTime

	err := row.Scan(
		&identity.ID,
		&identity.Role,
		&identity.Name,
		&identity.Email,
		&identity.PasswordHash,
		&phone,
		&gender,
		&dob,
		&specialty,
		&identity.Fees,
		&identity.Available,
		&otpCode,
		&otpExpires,
		&resetToken,
		&resetExpires,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &types.MedicusError{
				Type:    types.ErrorTypeNotFound,
				Code:    types.ErrCodeNotFound,
				Message: "Identity not found",
			}
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	identity.Phone = phone.String
	identity.Gender = gender.String
	identity.Specialty = specialty.String
	identity.OTPCode = otpCode.String
	identity.ResetToken = resetToken.String
	if dob.Valid {
		identity.DateOfBirth = &dob.Time
	}
	if otpExpires.Valid {
		identity.OTPExpiresAt = &otpExpires.Time
	}
	if resetExpires.Valid {
		identity.ResetExpiresAt = &resetExpires.Time
	}

	return &identity, nil
}

// UpdateIdentity applies a partial profile update
func (r *Repository) UpdateIdentity(id string, updates *types.IdentityUpdates) error {
	setParts := make([]string, 0)
	args := make([]interface{}, 0)
	argIndex := 1

	addSet := func(column string, value interface{}) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if updates.Name != nil {
		addSet("name", *updates.Name)
	}
	if updates.Email != nil {
		addSet("email", *updates.Email)
	}
	if updates.Phone != nil {
		addSet("phone", *updates.Phone)
	}
	if updates.Gender != nil {
		addSet("gender", *updates.Gender)
	}
	if updates.Specialty != nil {
		addSet("specialty", *updates.Specialty)
	}
	if updates.Fees != nil {
		addSet("fees", *updates.Fees)
	}
	if updates.Available != nil {
		addSet("available", *updates.Available)
	}

	if len(setParts) == 0 {
		return &types.MedicusError{
			Type:    types.ErrorTypeValidation,
			Code:    types.ErrCodeInvalidInput,
			Message: "No updates provided",
		}
	}

	// Always update the updated_at timestamp
	addSet("updated_at", time.Now())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE identities SET %s WHERE id = $%d",
		strings.Join(setParts, ", "), argIndex)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &types.MedicusError{
				Type:    types.ErrorTypeConflict,
				Code:    types.ErrCodeDuplicateEmail,
				Message: "An account with this email already exists",
			}
		}
		return fmt.Errorf("failed to update identity: %w", err)
	}

	return r.requireRow(result, "Identity not found")
}

// SetOTP stores a pending one-time code
func (r *Repository) SetOTP(id, code string, expiresAt time.Time) error {
	query := `UPDATE identities SET otp_code = $1, otp_expires_at = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.Exec(query, code, expiresAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set otp: %w", err)
	}
	return r.requireRow(result, "Identity not found")
}

// ClearOTP removes a consumed or invalidated one-time code
func (r *Repository) ClearOTP(id string) error {
	query := `UPDATE identities SET otp_code = NULL, otp_expires_at = NULL, updated_at = $1 WHERE id = $2`
	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to clear otp: %w", err)
	}
	return r.requireRow(result, "Identity not found")
}

// SetResetToken stores a pending password reset token
func (r *Repository) SetResetToken(id, token string, expiresAt time.Time) error {
	query := `UPDATE identities SET reset_token = $1, reset_expires_at = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.Exec(query, token, expiresAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return r.requireRow(result, "Identity not found")
}

// ClearResetToken removes a consumed or invalidated reset token
func (r *Repository) ClearResetToken(id string) error {
	query := `UPDATE identities SET reset_token = NULL, reset_expires_at = NULL, updated_at = $1 WHERE id = $2`
	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}
	return r.requireRow(result, "Identity not found")
}

// UpdatePasswordHash replaces the stored credential hash
func (r *Repository) UpdatePasswordHash(id, hash string) error {
	query := `UPDATE identities SET password_hash = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.Exec(query, hash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return r.requireRow(result, "Identity not found")
}

// ListIdentities retrieves identities for one role with pagination
func (r *Repository) ListIdentities(role types.Role, limit, offset int) ([]*types.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE role = $1 ORDER BY created_at DESC`
	args := []interface{}{role}
	argIndex := 2

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var identities []*types.Identity
	for rows.Next() {
		var identity types.Identity
		var phone, gender, specialty, otpCode, resetToken sql.NullString
		var dob, otpExpires, resetExpires sql.NullTime

		err := rows.Scan(
			&identity.ID,
			&identity.Role,
			&identity.Name,
			&identity.Email,
			&identity.PasswordHash,
			&phone,
			&gender,
			&dob,
			&specialty,
			&identity.Fees,
			&identity.Available,
			&otpCode,
			&otpExpires,
			&resetToken,
			&resetExpires,
			&identity.CreatedAt,
			&identity.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan identity row: %w", err)
		}

		identity.Phone = phone.String
		identity.Gender = gender.String
		identity.Specialty = specialty.String
		if dob.Valid {
			identity.DateOfBirth = &dob.Time
		}

		identities = append(identities, &identity)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating identity rows: %w", err)
	}

	return identities, nil
}

// DeleteIdentity removes an identity row
func (r *Repository) DeleteIdentity(id string) error {
	result, err := r.db.Exec(`DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	return r.requireRow(result, "Identity not found")
}

func (r *Repository) requireRow(result sql.Result, message string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &types.MedicusError{
			Type:    types.ErrorTypeNotFound,
			Code:    types.ErrCodeNotFound,
			Message: message,
		}
	}
	return nil
}
