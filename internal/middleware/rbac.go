package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/lostfound-id/lostfound-api/internal/models"
	appErrors "github.com/lostfound-id/lostfound-api/pkg/errors"
	"github.com/lostfound-id/lostfound-api/pkg/response"
)

// RequireRoles allows only callers whose role matches one of the given
// roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient role"))
			c.Abort()
			return
		}
		c.Next()
	}
}
