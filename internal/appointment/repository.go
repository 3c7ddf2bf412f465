package appointment

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/database"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

const appointmentColumns = `id, patient_id, doctor_id, patient_name, doctor_name,
		date, time, reason, status, notes, version, created_at, updated_at`

// Repository implements appointment persistence
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new appointment repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// CreateAppointment inserts a new appointment row
func (r *Repository) CreateAppointment(apt *types.Appointment) error {
	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, patient_name, doctor_name,
			date, time, reason, status, notes, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(query,
		apt.ID,
		apt.PatientID,
		apt.DoctorID,
		apt.PatientName,
		apt.DoctorName,
		apt.Date,
		apt.Time,
		apt.Reason,
		apt.Status,
		apt.Notes,
		apt.Version,
		apt.CreatedAt,
		apt.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"appointment_id": apt.ID,
		"patient_id":     apt.PatientID,
		"doctor_id":      apt.DoctorID,
	}).Info("Appointment created successfully")
	return nil
}

// GetAppointmentByID retrieves an appointment by ID
func (r *Repository) GetAppointmentByID(id string) (*types.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var apt types.Appointment
	var reason, notes sql.NullString

	err := r.db.QueryRow(query, id).Scan(
		&apt.ID,
		&apt.PatientID,
		&apt.DoctorID,
		&apt.PatientName,
		&apt.DoctorName,
		&apt.Date,
		&apt.Time,
		&reason,
		&apt.Status,
		&notes,
		&apt.Version,
		&apt.CreatedAt,
		&apt.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &types.MedicusError{
				Type:    types.ErrorTypeNotFound,
				Code:    types.ErrCodeNotFound,
				Message: "Appointment not found",
			}
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	apt.Reason = reason.String
	apt.Notes = notes.String
	return &apt, nil
}

// UpdateAppointment applies a partial update and bumps the row version.
// When a version is supplied the UPDATE only matches the row at that
// version, so concurrent writers cannot both succeed against one read.
func (r *Repository) UpdateAppointment(id string, updates *types.AppointmentUpdates) error {
	setParts := make([]string, 0)
	args := make([]interface{}, 0)
	argIndex := 1

	addSet := func(column string, value interface{}) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if updates.Status != nil {
		addSet("status", *updates.Status)
	}
	if updates.Notes != nil {
		addSet("notes", *updates.Notes)
	}
	if updates.Date != nil {
		addSet("date", *updates.Date)
	}
	if updates.Time != nil {
		addSet("time", *updates.Time)
	}
	if updates.Reason != nil {
		addSet("reason", *updates.Reason)
	}

	if len(setParts) == 0 {
		return &types.MedicusError{
			Type:    types.ErrorTypeValidation,
			Code:    types.ErrCodeInvalidInput,
			Message: "No updates provided",
		}
	}

	addSet("updated_at", time.Now())
	setParts = append(setParts, "version = version + 1")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE appointments SET %s WHERE id = $%d",
		strings.Join(setParts, ", "), argIndex)
	if updates.Version != nil {
		argIndex++
		query += fmt.Sprintf(" AND version = $%d", argIndex)
		args = append(args, *updates.Version)
	}

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if updates.Version != nil {
			return &types.MedicusError{
				Type:    types.ErrorTypeConflict,
				Code:    types.ErrCodeStaleVersion,
				Message: "Appointment was modified since it was read",
			}
		}
		return &types.MedicusError{
			Type:    types.ErrorTypeNotFound,
			Code:    types.ErrCodeNotFound,
			Message: "Appointment not found",
		}
	}

	return nil
}

// DeleteAppointment removes an appointment row
func (r *Repository) DeleteAppointment(id string) error {
	result, err := r.db.Exec(`DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &types.MedicusError{
			Type:    types.ErrorTypeNotFound,
			Code:    types.ErrCodeNotFound,
			Message: "Appointment not found",
		}
	}

	r.logger.WithField("appointment_id", id).Info("Appointment deleted")
	return nil
}

// GetAppointments retrieves appointments with filtering, newest first
func (r *Repository) GetAppointments(filters *types.AppointmentFilters) ([]*types.Appointment, error) {
	baseQuery := `SELECT ` + appointmentColumns + ` FROM appointments`

	whereParts := make([]string, 0)
	args := make([]interface{}, 0)
	argIndex := 1

	addWhere := func(clause string, value interface{}) {
		whereParts = append(whereParts, fmt.Sprintf(clause, argIndex))
		args = append(args, value)
		argIndex++
	}

	if filters != nil {
		if filters.PatientID != "" {
			addWhere("patient_id = $%d", filters.PatientID)
		}
		if filters.DoctorID != "" {
			addWhere("doctor_id = $%d", filters.DoctorID)
		}
		if filters.Status != "" {
			addWhere("status = $%d", filters.Status)
		}
		if filters.DateFrom != nil {
			addWhere("date >= $%d", *filters.DateFrom)
		}
		if filters.DateTo != nil {
			addWhere("date <= $%d", *filters.DateTo)
		}
	}

	query := baseQuery
	if len(whereParts) > 0 {
		query += " WHERE " + strings.Join(whereParts, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if filters != nil && filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filters.Limit)
		argIndex++
	}
	if filters != nil && filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*types.Appointment
	for rows.Next() {
		var apt types.Appointment
		var reason, notes sql.NullString

		err := rows.Scan(
			&apt.ID,
			&apt.PatientID,
			&apt.DoctorID,
			&apt.PatientName,
			&apt.DoctorName,
			&apt.Date,
			&apt.Time,
			&reason,
			&apt.Status,
			&notes,
			&apt.Version,
			&apt.CreatedAt,
			&apt.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment row: %w", err)
		}

		apt.Reason = reason.String
		apt.Notes = notes.String
		appointments = append(appointments, &apt)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointment rows: %w", err)
	}

	return appointments, nil
}

// AppendCancellation adds one entry to the append-only cancellation log
func (r *Repository) AppendCancellation(rec *types.CancellationRecord) error {
	query := `
		INSERT INTO appointment_cancellations (id, appointment_id, actor_role, actor_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query,
		rec.ID,
		rec.AppointmentID,
		rec.ActorRole,
		rec.ActorID,
		rec.Reason,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append cancellation record: %w", err)
	}

	return nil
}

// GetCancellations lists the cancellation log for one appointment, oldest first
func (r *Repository) GetCancellations(appointmentID string) ([]*types.CancellationRecord, error) {
	query := `
		SELECT id, appointment_id, actor_role, actor_id, reason, created_at
		FROM appointment_cancellations
		WHERE appointment_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cancellation records: %w", err)
	}
	defer rows.Close()

	var records []*types.CancellationRecord
	for rows.Next() {
		var rec types.CancellationRecord
		var reason sql.NullString

		err := rows.Scan(&rec.ID, &rec.AppointmentID, &rec.ActorRole, &rec.ActorID, &reason, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cancellation row: %w", err)
		}

		rec.Reason = reason.String
		records = append(records, &rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cancellation rows: %w", err)
	}

	return records, nil
}
