package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/interfaces"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// Service implements caller-driven notifications. Nothing in the
// appointment lifecycle creates these automatically.
type Service struct {
	logger     *logger.Logger
	repository interfaces.NotificationRepository
	identities interfaces.IdentityRepository
	mailer     interfaces.Mailer
}

// NewService creates a new notification service
func NewService(log *logger.Logger, repo interfaces.NotificationRepository, identities interfaces.IdentityRepository, mailer interfaces.Mailer) *Service {
	return &Service{
		logger:     log,
		repository: repo,
		identities: identities,
		mailer:     mailer,
	}
}

// CreateNotification stores a notification for one target identity and
// optionally mails it. Mail failure is logged, not returned; the stored
// record is the source of truth.
func (s *Service) CreateNotification(req *types.NotificationRequest, caller *types.IdentityClaims) (*types.Notification, error) {
	if caller.Role == types.RolePatient {
		return nil, types.NewAuthorizationError(types.ErrCodeForbidden,
			"Patients cannot send notifications")
	}
	if !types.ValidRole(req.TargetKind) {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "Unknown target kind", nil)
	}

	target, err := s.identities.GetIdentityByID(req.TargetID)
	if err != nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "Target identity not found")
	}
	if target.Role != req.TargetKind {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			"Target identity does not have the given kind", nil)
	}

	kind := req.Kind
	if kind == "" {
		kind = types.NotificationSystem
	}

	n := &types.Notification{
		ID:         uuid.New().String(),
		TargetKind: req.TargetKind,
		TargetID:   req.TargetID,
		Kind:       kind,
		Subject:    req.Subject,
		Body:       req.Body,
		CreatedAt:  time.Now(),
	}

	if err := s.repository.CreateNotification(n); err != nil {
		return nil, err
	}

	if req.Email {
		if err := s.mailer.Send(target.Email, req.Subject, req.Body); err != nil {
			s.logger.WithError(err).WithField("notification_id", n.ID).
				Warn("Notification stored but mail delivery failed")
		}
	}

	return n, nil
}

// ListNotifications returns the caller's own notifications
func (s *Service) ListNotifications(target *types.IdentityClaims) ([]*types.Notification, error) {
	return s.repository.GetNotifications(target.Role, target.IdentityID)
}

// MarkRead marks one of the caller's notifications as read
func (s *Service) MarkRead(notificationID string, caller *types.IdentityClaims) error {
	n, err := s.repository.GetNotificationByID(notificationID)
	if err != nil {
		return err
	}

	if n.TargetKind != caller.Role || n.TargetID != caller.IdentityID {
		return types.NewAuthorizationError(types.ErrCodeForbidden,
			"Not permitted to modify this notification")
	}

	return s.repository.MarkRead(notificationID)
}
