package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/internal/identity"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/interfaces"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// Handlers contains HTTP handlers for appointment operations
type Handlers struct {
	service interfaces.AppointmentService
	auth    *identity.AuthMiddleware
	logger  *logger.Logger
}

// NewHandlers creates new appointment HTTP handlers
func NewHandlers(service interfaces.AppointmentService, auth *identity.AuthMiddleware, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		auth:    auth,
		logger:  log,
	}
}

// RegisterRoutes registers appointment routes with the router
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		appointments := v1.Group("/appointments")
		{
			// The full listing is part of the public surface
			appointments.GET("", h.ListAppointments)

			appointments.POST("", h.auth.RequireRole(types.RolePatient), h.CreateAppointment)
			appointments.GET("/mine", h.auth.RequireRole(types.RolePatient), h.ListMine)
			appointments.GET("/assigned", h.auth.RequireRole(types.RoleDoctor), h.ListAssigned)

			anyRole := h.auth.RequireAnyRole(types.RoleAdmin, types.RoleDoctor, types.RolePatient)
			appointments.GET("/:id", anyRole, h.GetAppointment)
			appointments.GET("/:id/cancellations", anyRole, h.GetCancellations)
			appointments.PUT("/:id", anyRole, h.UpdateAppointment)
			appointments.PUT("/:id/cancel", anyRole, h.CancelAppointment)
			appointments.PUT("/:id/reschedule", anyRole, h.RescheduleAppointment)
			appointments.DELETE("/:id", anyRole, h.DeleteAppointment)
		}
	}
}

// CreateAppointment books an appointment for the calling patient
func (h *Handlers) CreateAppointment(c *gin.Context) {
	caller, ok := identity.CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	var req types.AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return
	}

	apt, err := h.service.CreateAppointment(&req, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, apt)
}

// GetAppointment returns one appointment by id
func (h *Handlers) GetAppointment(c *gin.Context) {
	apt, err := h.service.GetAppointment(c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, apt)
}

// ListAppointments returns all appointments, newest first
func (h *Handlers) ListAppointments(c *gin.Context) {
	filters := parseFilters(c)

	appointments, err := h.service.ListAppointments(filters)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appointments, "count": len(appointments)})
}

// ListMine returns the calling patient's appointments
func (h *Handlers) ListMine(c *gin.Context) {
	caller, ok := identity.CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	appointments, err := h.service.ListPatientAppointments(caller.IdentityID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appointments, "count": len(appointments)})
}

// ListAssigned returns the calling doctor's assigned appointments
func (h *Handlers) ListAssigned(c *gin.Context) {
	caller, ok := identity.CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	appointments, err := h.service.ListDoctorAppointments(caller.IdentityID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appointments, "count": len(appointments)})
}

// UpdateAppointment applies a partial update
func (h *Handlers) UpdateAppointment(c *gin.Context) {
	caller, ok := identity.CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	var updates types.AppointmentUpdates
	if err := c.ShouldBindJSON(&updates); err != nil {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return
	}

	apt, err := h.service.UpdateAppointment(c.Param("id"), &updates, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, apt)
}

// CancelAppointment cancels an appointment with an optional reason
func (h *Handlers) CancelAppointment(c *gin.Context) {
	caller, ok := identity.CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	var body struct {
		Reason  string `json:"reason"`
		Version *int   `json:"version"`
	}
	// A missing body means cancelling without a reason
	_ = c.ShouldBindJSON(&body)

	apt, err := h.service.CancelAppointment(c.Param("id"), body.Reason, body.Version, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, apt)
}

// RescheduleAppointment replaces the date and time
func (h *Handlers) RescheduleAppointment(c *gin.Context) {
	caller, ok := identity.CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	var body struct {
		Date    string `json:"date" binding:"required"`
		Time    string `json:"time" binding:"required"`
		Version *int   `json:"version"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return
	}

	apt, err := h.service.RescheduleAppointment(c.Param("id"), body.Date, body.Time, body.Version, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, apt)
}

// DeleteAppointment removes an appointment
func (h *Handlers) DeleteAppointment(c *gin.Context) {
	caller, ok := identity.CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	if err := h.service.DeleteAppointment(c.Param("id"), caller); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted"})
}

// GetCancellations returns the cancellation log for one appointment
func (h *Handlers) GetCancellations(c *gin.Context) {
	records, err := h.service.GetCancellations(c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancellations": records, "count": len(records)})
}

func parseFilters(c *gin.Context) *types.AppointmentFilters {
	filters := &types.AppointmentFilters{
		PatientID: c.Query("patient_id"),
		DoctorID:  c.Query("doctor_id"),
		Status:    types.AppointmentStatus(c.Query("status")),
	}

	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filters.DateFrom = &t
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filters.DateTo = &t
		}
	}

	return filters
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
