package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

var errAccessDenied = appErrors.Clone(appErrors.ErrForbidden, "Access denied")

// Authorize admits only the listed roles. A missing user is 401.
func Authorize(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[user.Role]; !ok {
			response.Error(c, errAccessDenied)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SelfOrRoles admits the listed roles and any caller whose id equals the
// named path parameter.
func SelfOrRoles(param string, roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[user.Role]; ok {
			c.Next()
			return
		}
		if target := c.Param(param); target != "" && target == user.ID {
			c.Next()
			return
		}
		response.Error(c, errAccessDenied)
		c.Abort()
	}
}
