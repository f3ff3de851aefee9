package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nextlevel/api/internal/models"
	"nextlevel/api/internal/response"
)

// RequireRoles admits only principals whose role is in the allowed
// set. Must run after Gate.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[string(role)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := Principal(c)
		if !ok {
			response.AbortFail(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if _, ok := roleSet[claims.Role]; !ok {
			response.AbortFail(c, http.StatusForbidden, "Forbidden")
			return
		}

		c.Next()
	}
}
