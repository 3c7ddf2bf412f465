package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the database schema
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	// Create extension for UUID generation
	if err := db.createExtensions(ctx); err != nil {
		return fmt.Errorf("failed to create extensions: %w", err)
	}

	// Create tables
	tables := []string{
		createIdentitiesTable,
		createAppointmentsTable,
		createCancellationsTable,
		createSchedulesTable,
		createNotificationsTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Create indexes
	indexes := []string{
		createIdentitiesIndexes,
		createAppointmentsIndexes,
		createCancellationsIndexes,
		createSchedulesIndexes,
		createNotificationsIndexes,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

// createExtensions creates required PostgreSQL extensions
func (db *DB) createExtensions(ctx context.Context) error {
	extensions := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, ext := range extensions {
		if _, err := db.ExecContext(ctx, ext); err != nil {
			return fmt.Errorf("failed to create extension: %w", err)
		}
	}

	return nil
}

// SQL DDL statements for table creation
const (
	createIdentitiesTable = `
		CREATE TABLE IF NOT EXISTS identities (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			role VARCHAR(20) NOT NULL CHECK (role IN ('patient', 'doctor', 'admin')),
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			phone VARCHAR(50),
			gender VARCHAR(20),
			date_of_birth DATE,
			specialty VARCHAR(100),
			fees NUMERIC(10,2) DEFAULT 0,
			available BOOLEAN DEFAULT TRUE,
			otp_code VARCHAR(10),
			otp_expires_at TIMESTAMP WITH TIME ZONE,
			reset_token VARCHAR(64),
			reset_expires_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE (role, email)
		);`

	createAppointmentsTable = `
		CREATE TABLE IF NOT EXISTS appointments (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			patient_id UUID NOT NULL,
			doctor_id UUID NOT NULL,
			patient_name VARCHAR(255) NOT NULL,
			doctor_name VARCHAR(255) NOT NULL,
			date DATE NOT NULL,
			time VARCHAR(50) NOT NULL,
			reason TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			notes TEXT,
			version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createCancellationsTable = `
		CREATE TABLE IF NOT EXISTS appointment_cancellations (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			appointment_id UUID NOT NULL REFERENCES appointments(id) ON DELETE CASCADE,
			actor_role VARCHAR(20) NOT NULL,
			actor_id UUID NOT NULL,
			reason TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createSchedulesTable = `
		CREATE TABLE IF NOT EXISTS doctor_schedules (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			doctor_id UUID NOT NULL,
			weekday SMALLINT NOT NULL CHECK (weekday BETWEEN 0 AND 6),
			start_time VARCHAR(20) NOT NULL,
			end_time VARCHAR(20) NOT NULL,
			slot_mins INTEGER NOT NULL DEFAULT 30,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE (doctor_id, weekday)
		);`

	createNotificationsTable = `
		CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			target_kind VARCHAR(20) NOT NULL,
			target_id UUID NOT NULL,
			kind VARCHAR(20) NOT NULL DEFAULT 'system',
			subject VARCHAR(255) NOT NULL,
			body TEXT,
			read BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`
)

// SQL DDL statements for index creation
const (
	createIdentitiesIndexes = `
		CREATE INDEX IF NOT EXISTS idx_identities_role ON identities(role);
		CREATE INDEX IF NOT EXISTS idx_identities_email ON identities(email);
		CREATE INDEX IF NOT EXISTS idx_identities_reset_token ON identities(reset_token);`

	createAppointmentsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_appointments_patient_id ON appointments(patient_id);
		CREATE INDEX IF NOT EXISTS idx_appointments_doctor_id ON appointments(doctor_id);
		CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(date);
		CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status);`

	createCancellationsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_cancellations_appointment_id ON appointment_cancellations(appointment_id);`

	createSchedulesIndexes = `
		CREATE INDEX IF NOT EXISTS idx_schedules_doctor_id ON doctor_schedules(doctor_id);`

	createNotificationsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_notifications_target ON notifications(target_kind, target_id);
		CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);`
)
