package notification

import (
	"database/sql"
	"fmt"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/database"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// Repository implements notification persistence
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new notification repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// CreateNotification inserts a new notification row
func (r *Repository) CreateNotification(n *types.Notification) error {
	query := `
		INSERT INTO notifications (id, target_kind, target_id, kind, subject, body, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		n.ID,
		n.TargetKind,
		n.TargetID,
		n.Kind,
		n.Subject,
		n.Body,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// GetNotificationByID retrieves one notification
func (r *Repository) GetNotificationByID(id string) (*types.Notification, error) {
	query := `
		SELECT id, target_kind, target_id, kind, subject, body, read, created_at
		FROM notifications WHERE id = $1`

	var n types.Notification
	var body sql.NullString

	err := r.db.QueryRow(query, id).Scan(
		&n.ID, &n.TargetKind, &n.TargetID, &n.Kind, &n.Subject, &body, &n.Read, &n.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &types.MedicusError{
				Type:    types.ErrorTypeNotFound,
				Code:    types.ErrCodeNotFound,
				Message: "Notification not found",
			}
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	n.Body = body.String
	return &n, nil
}

// GetNotifications lists notifications addressed to one identity, newest first
func (r *Repository) GetNotifications(targetKind types.Role, targetID string) ([]*types.Notification, error) {
	query := `
		SELECT id, target_kind, target_id, kind, subject, body, read, created_at
		FROM notifications
		WHERE target_kind = $1 AND target_id = $2
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, targetKind, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*types.Notification
	for rows.Next() {
		var n types.Notification
		var body sql.NullString

		err := rows.Scan(&n.ID, &n.TargetKind, &n.TargetID, &n.Kind, &n.Subject, &body, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}

		n.Body = body.String
		notifications = append(notifications, &n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}

	return notifications, nil
}

// MarkRead marks one notification as read
func (r *Repository) MarkRead(id string) error {
	result, err := r.db.Exec(`UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &types.MedicusError{
			Type:    types.ErrorTypeNotFound,
			Code:    types.ErrCodeNotFound,
			Message: "Notification not found",
		}
	}

	return nil
}
