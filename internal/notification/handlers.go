package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/internal/identity"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/interfaces"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// Handlers contains HTTP handlers for notification operations
type Handlers struct {
	service interfaces.NotificationService
	auth    *identity.AuthMiddleware
	logger  *logger.Logger
}

// NewHandlers creates new notification HTTP handlers
func NewHandlers(service interfaces.NotificationService, auth *identity.AuthMiddleware, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		auth:    auth,
		logger:  log,
	}
}

// RegisterRoutes registers notification routes with the router
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		notifications := v1.Group("/notifications")
		{
			notifications.POST("", h.auth.RequireAnyRole(types.RoleAdmin, types.RoleDoctor), h.CreateNotification)

			anyRole := h.auth.RequireAnyRole(types.RoleAdmin, types.RoleDoctor, types.RolePatient)
			notifications.GET("", anyRole, h.ListNotifications)
			notifications.PUT("/:id/read", anyRole, h.MarkRead)
		}
	}
}

// CreateNotification stores a notification addressed to one identity
func (h *Handlers) CreateNotification(c *gin.Context) {
	caller, ok := identity.CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	var req types.NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return
	}

	n, err := h.service.CreateNotification(&req, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, n)
}

// ListNotifications returns the caller's notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	caller, ok := identity.CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	notifications, err := h.service.ListNotifications(caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "count": len(notifications)})
}

// MarkRead marks one notification as read
func (h *Handlers) MarkRead(c *gin.Context) {
	caller, ok := identity.CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	if err := h.service.MarkRead(c.Param("id"), caller); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
}

func (h *Handlers) handleError(c *gin.Context, err error) {
	if medicusErr, ok := err.(*types.MedicusError); ok {
		c.JSON(statusCodeForErrorType(medicusErr.Type), gin.H{
			"error": gin.H{
				"code":    medicusErr.Code,
				"message": medicusErr.Message,
				"details": medicusErr.Details,
			},
		})
		return
	}

	h.logger.WithError(err).Error("Internal server error")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    types.ErrCodeInternalError,
			"message": "An internal error occurred",
		},
	})
}

func statusCodeForErrorType(errorType types.ErrorType) int {
	switch errorType {
	case types.ErrorTypeValidation:
		return http.StatusBadRequest
	case types.ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case types.ErrorTypeAuthorization:
		return http.StatusForbidden
	case types.ErrorTypeNotFound:
		return http.StatusNotFound
	case types.ErrorTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
