package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/config"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/interfaces"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/monitoring"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// Handlers contains HTTP handlers for identity operations
type Handlers struct {
	service interfaces.IdentityService
	auth    *AuthMiddleware
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
	jwtCfg  *config.JWTConfig
}

// NewHandlers creates new identity HTTP handlers
func NewHandlers(service interfaces.IdentityService, auth *AuthMiddleware, log *logger.Logger, metrics *monitoring.MetricsCollector, jwtCfg *config.JWTConfig) *Handlers {
	return &Handlers{
		service: service,
		auth:    auth,
		logger:  log,
		metrics: metrics,
		jwtCfg:  jwtCfg,
	}
}

// RegisterRoutes registers identity routes with the router
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		{
			auth.POST("/:role/register", h.Register)
			auth.POST("/:role/login", h.Login)
			auth.POST("/logout", h.Logout)
			auth.POST("/otp/request", h.RequestOTP)
			auth.POST("/otp/verify", h.VerifyOTP)
			auth.POST("/password/forgot", h.ForgotPassword)
			auth.POST("/password/reset", h.ResetPassword)
		}

		// Profile routes (any authenticated role)
		me := v1.Group("/me")
		me.Use(h.auth.RequireAnyRole(types.RoleAdmin, types.RoleDoctor, types.RolePatient))
		{
			me.GET("", h.GetProfile)
			me.PUT("", h.UpdateProfile)
		}

		// Administration routes
		admin := v1.Group("/admin")
		admin.Use(h.auth.RequireRole(types.RoleAdmin))
		{
			admin.GET("/identities", h.ListIdentities)
			admin.DELETE("/identities/:id", h.DeleteIdentity)
		}
	}
}

// Register handles account registration for one role
func (h *Handlers) Register(c *gin.Context) {
	role := types.Role(c.Param("role"))

	var req types.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return
	}

	identity, err := h.service.Register(role, &req)
	if err != nil {
		h.metrics.RecordAuthAttempt(string(role), "register_failed")
		h.handleError(c, err)
		return
	}

	h.metrics.RecordAuthAttempt(string(role), "registered")
	c.JSON(http.StatusCreated, identity)
}

// Login handles authentication and sets the session cookie
func (h *Handlers) Login(c *gin.Context) {
	role := types.Role(c.Param("role"))
	if !types.ValidRole(role) {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, "Unknown role", nil))
		return
	}

	var creds types.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return
	}

	identity, token, err := h.service.Authenticate(role, &creds)
	if err != nil {
		h.metrics.RecordAuthAttempt(string(role), "login_failed")
		h.handleError(c, err)
		return
	}

	// One cookie name for every role: a browser holds at most one
	// active role-session at a time.
	c.SetCookie(h.jwtCfg.CookieName, token.Token, h.jwtCfg.AccessTokenTTL, "/", "", h.jwtCfg.CookieSecure, true)

	h.metrics.RecordAuthAttempt(string(role), "login_ok")
	c.JSON(http.StatusOK, gin.H{
		"identity": identity,
		"token":    token,
	})
}

// Logout clears the session cookie
func (h *Handlers) Logout(c *gin.Context) {
	c.SetCookie(h.jwtCfg.CookieName, "", -1, "/", "", h.jwtCfg.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// RequestOTP mails a one-time verification code
func (h *Handlers) RequestOTP(c *gin.Context) {
	var req types.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return
	}

	if err := h.service.RequestOTP(&req); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}

// VerifyOTP checks a mailed verification code
func (h *Handlers) VerifyOTP(c *gin.Context) {
	var req types.OTPVerification
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return
	}

	identity, err := h.service.VerifyOTP(&req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Code verified", "identity": identity})
}

// ForgotPassword starts the password reset flow
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var req types.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return
	}

	if err := h.service.RequestPasswordReset(&req); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reset link sent"})
}

// ResetPassword completes the password reset flow
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req types.PasswordReset
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return
	}

	if err := h.service.ResetPassword(&req); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// GetProfile returns the caller's own identity
func (h *Handlers) GetProfile(c *gin.Context) {
	caller, ok := CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	identity, err := h.service.GetIdentity(caller.IdentityID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, identity)
}

// UpdateProfile applies a partial update to the caller's own identity
func (h *Handlers) UpdateProfile(c *gin.Context) {
	caller, ok := CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	var updates types.IdentityUpdates
	if err := c.ShouldBindJSON(&updates); err != nil {
		h.handleError(c, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return
	}

	identity, err := h.service.UpdateIdentity(caller.IdentityID, &updates, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, identity)
}

// ListIdentities returns all identities for one role
func (h *Handlers) ListIdentities(c *gin.Context) {
	role := types.Role(c.Query("role"))

	identities, err := h.service.ListIdentities(role)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"identities": identities, "count": len(identities)})
}

// DeleteIdentity removes an account
func (h *Handlers) DeleteIdentity(c *gin.Context) {
	caller, ok := CallerFromContext(c)
	if !ok {
		h.handleError(c, types.NewAuthenticationError(types.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	if err := h.service.DeleteIdentity(c.Param("id"), caller); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Identity deleted"})
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
	case types.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
