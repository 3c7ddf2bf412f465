package schedule

import (
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/database"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// Repository implements doctor schedule persistence
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new schedule repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// UpsertSchedule inserts or replaces one weekday of working hours
func (r *Repository) UpsertSchedule(schedule *types.DoctorSchedule) error {
	query := `
		INSERT INTO doctor_schedules (id, doctor_id, weekday, start_time, end_time, slot_mins, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (doctor_id, weekday)
		DO UPDATE SET start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			slot_mins = EXCLUDED.slot_mins,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(query,
		schedule.ID,
		schedule.DoctorID,
		schedule.Weekday,
		schedule.StartTime,
		schedule.EndTime,
		schedule.SlotMins,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("failed to upsert schedule: %s", pqErr.Message)
		}
		return fmt.Errorf("failed to upsert schedule: %w", err)
	}

	return nil
}

// GetSchedules lists a doctor's working hours by weekday
func (r *Repository) GetSchedules(doctorID string) ([]*types.DoctorSchedule, error) {
	query := `
		SELECT id, doctor_id, weekday, start_time, end_time, slot_mins, created_at, updated_at
		FROM doctor_schedules
		WHERE doctor_id = $1
		ORDER BY weekday ASC`

	rows, err := r.db.Query(query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*types.DoctorSchedule
	for rows.Next() {
		var s types.DoctorSchedule
		err := rows.Scan(&s.ID, &s.DoctorID, &s.Weekday, &s.StartTime, &s.EndTime,
			&s.SlotMins, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		schedules = append(schedules, &s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}

	return schedules, nil
}

// GetBookedTimes returns the verbatim time strings booked for a doctor
// on one date, excluding cancelled appointments
func (r *Repository) GetBookedTimes(doctorID, date string) ([]string, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date format: %w", err)
	}

	query := `
		SELECT time FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND status != $3`

	rows, err := r.db.Query(query, doctorID, day, types.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan booked time: %w", err)
		}
		times = append(times, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating booked times: %w", err)
	}

	return times, nil
}
