package types

import "time"

// DoctorSchedule represents one weekday of working hours for a doctor.
// Schedules are informational; booking never validates against them.
type DoctorSchedule struct {
	ID        string    `json:"id"`
	DoctorID  string    `json:"doctor_id"`
	Weekday   int       `json:"weekday"` // 0 = Sunday
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	SlotMins  int       `json:"slot_mins"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TimeSlot represents one bookable interval on a doctor's day
type TimeSlot struct {
	DoctorID  string    `json:"doctor_id"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Booked    bool      `json:"booked"`
}

// ScheduleUpsert replaces a doctor's working hours for one weekday
type ScheduleUpsert struct {
	Weekday   int    `json:"weekday" binding:"min=0,max=6"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	SlotMins  int    `json:"slot_mins"`
}
