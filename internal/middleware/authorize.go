package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/authz"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/response"
)

// Authorize enforces the static permission matrix for the given resource and
// action. It runs after JWT, so missing claims mean a wiring error and deny.
func Authorize(resource authz.Resource, action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrTokenMissing)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if !authz.Allowed(claims.Role, resource, action) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
