package schedule

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/internal/identity"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/interfaces"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// Handlers contains HTTP handlers for the doctor directory and schedules
type Handlers struct {
	service interfaces.ScheduleService
	auth    *identity.AuthMiddleware
	logger  *logger.Logger
}

// NewHandlers creates new schedule HTTP handlers
func NewHandlers(service interfaces.ScheduleService, auth *identity.AuthMiddleware, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		auth:    auth,
		logger:  log,
	}
}

// RegisterRoutes registers doctor directory and schedule routes
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		doctors := v1.Group("/doctors")
		{
			doctors.GET("", h.ListDoctors)
			doctors.GET("/:id/slots", h.GetAvailableSlots)

			staff := h.auth.RequireAnyRole(types.RoleAdmin, types.RoleDoctor)
			doctors.PUT("/:id/schedule", staff, h.UpsertSchedule)
			doctors.PUT("/:id/availability", staff, h.SetAvailability)
		}
	}
}

// ListDoctors returns the public doctor directory
func (h *Handlers) ListDoctors(c *gin.Context) {
	doctors, err := h.service.ListDoctors()
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"doctors": doctors, "count": len(doctors)})
}

// GetAvailableSlots returns the advisory slot view for one date
func (h *Handlers) GetAvailableSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput,
			"Query parameter date is required", nil))
		return
	}

	slots, err := h.service.GetAvailableSlots(c.Param("id"), date)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"slots": slots, "count": len(slots)})
}

// UpsertSchedule replaces one weekday of working hours
func (h *Handlers) UpsertSchedule(c *gin.Context) {
	caller, ok := identity.CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	var upsert types.ScheduleUpsert
	if err := c.ShouldBindJSON(&upsert); err != nil {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return
	}

	schedule, err := h.service.UpsertSchedule(c.Param("id"), &upsert, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// SetAvailability flips the advisory availability flag
func (h *Handlers) SetAvailability(c *gin.Context) {
	caller, ok := identity.CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	var body struct {
		Available *bool `json:"available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return
	}

	if err := h.service.SetDoctorAvailability(c.Param("id"), *body.Available, caller); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Availability updated"})
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
