package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/interfaces"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// ContextKeyClaims is the gin context key holding the resolved caller
const ContextKeyClaims = "caller_claims"

// probeOrder fixes the resolution order for multi-role guards
var probeOrder = []types.Role{types.RoleAdmin, types.RoleDoctor, types.RolePatient}

// AuthMiddleware resolves session tokens into caller claims
type AuthMiddleware struct {
	tokens     interfaces.TokenIssuer
	repository interfaces.IdentityRepository
	logger     *logger.Logger
	cookieName string
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens interfaces.TokenIssuer, repo interfaces.IdentityRepository, log *logger.Logger, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:     tokens,
		repository: repo,
		logger:     log,
		cookieName: cookieName,
	}
}

// RequireRole admits only callers holding a valid session for one role.
// The backing identity row must still exist; a deleted account cannot
// keep using an unexpired token.
func (am *AuthMiddleware) RequireRole(role types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := am.resolve(c)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    types.ErrCodeForbidden,
					"message": "Insufficient role",
				},
			})
			return
		}

		if _, err := am.repository.GetIdentityByID(claims.IdentityID); err != nil {
			abortUnauthorized(c, "Account no longer exists")
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireAnyRole admits callers holding any of the given roles. Roles
// are probed admin first, then doctor, then patient; the first match wins.
func (am *AuthMiddleware) RequireAnyRole(roles ...types.Role) gin.HandlerFunc {
	allowed := make(map[types.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		claims, err := am.resolve(c)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		matched := false
		for _, role := range probeOrder {
			if allowed[role] && claims.Role == role {
				matched = true
				break
			}
		}
		if !matched {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    types.ErrCodeForbidden,
					"message": "Insufficient role",
				},
			})
			return
		}

		if _, err := am.repository.GetIdentityByID(claims.IdentityID); err != nil {
			abortUnauthorized(c, "Account no longer exists")
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// resolve extracts and validates the session token. The cookie is the
// primary transport; a Bearer header is accepted for non-browser clients.
func (am *AuthMiddleware) resolve(c *gin.Context) (*types.IdentityClaims, error) {
	token, err := c.Cookie(am.cookieName)
	if err != nil || token == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if token == "" {
		return nil, errMissingToken
	}

	claims, err := am.tokens.Validate(token)
	if err != nil {
		am.logger.Security("token_rejected", "", map[string]interface{}{
			"path":   c.FullPath(),
			"reason": err.Error(),
		})
		return nil, errInvalidToken
	}

	return claims, nil
}

var (
	errMissingToken = &types.MedicusError{
		Type:    types.ErrorTypeAuthentication,
		Code:    types.ErrCodeUnauthorized,
		Message: "Authentication required",
	}
	errInvalidToken = &types.MedicusError{
		Type:    types.ErrorTypeAuthentication,
		Code:    types.ErrCodeUnauthorized,
		Message: "Invalid or expired session",
	}
)

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    types.ErrCodeUnauthorized,
			"message": message,
		},
	})
}

// CallerFromContext returns the resolved caller claims, if any
func CallerFromContext(c *gin.Context) (*types.IdentityClaims, bool) {
	value, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*types.IdentityClaims)
	return claims, ok
}
