package types

import "time"

// NotificationKind categorizes a notification
type NotificationKind string

const (
	NotificationReminder     NotificationKind = "reminder"
	NotificationConfirmation NotificationKind = "confirmation"
	NotificationCancellation NotificationKind = "cancellation"
	NotificationSystem       NotificationKind = "system"
)

// Notification is addressed to exactly one identity, discriminated by
// TargetKind + TargetID. Appointment operations never create these; the
// caller decides when to notify.
type Notification struct {
	ID         string           `json:"id"`
	TargetKind Role             `json:"target_kind"`
	TargetID   string           `json:"target_id"`
	Kind       NotificationKind `json:"kind"`
	Subject    string           `json:"subject"`
	Body       string           `json:"body"`
	Read       bool             `json:"read"`
	CreatedAt  time.Time        `json:"created_at"`
}

// NotificationRequest creates a notification for a target identity
type NotificationRequest struct {
	TargetKind Role             `json:"target_kind" binding:"required"`
	TargetID   string           `json:"target_id" binding:"required"`
	Kind       NotificationKind `json:"kind"`
	Subject    string           `json:"subject" binding:"required"`
	Body       string           `json:"body"`
	Email      bool             `json:"email"`
}
