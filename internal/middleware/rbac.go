package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/permissions"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
	"github.com/seims-dev/seims-api/pkg/response"
)

// RequireCapability blocks requests whose role is not granted the
// capability. The services re-check on their own; this keeps obviously
// unauthorized requests from reaching them at all.
func RequireCapability(capability permissions.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)
		if !permissions.Can(claims.Role, capability) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAnyCapability passes when the role holds at least one of the
// provided capabilities.
func RequireAnyCapability(capabilities ...permissions.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)
		for _, capability := range capabilities {
			if permissions.Can(claims.Role, capability) {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
