package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

// Context keys populated by the auth middleware.
const (
	ContextUserKey = "currentUser"
	ContextAuthKey = "authInfo"
)

type authenticator interface {
	Authenticate(ctx context.Context, header string) (*models.CurrentUser, *models.AuthInfo, error)
}

// Auth requires a bearer token from either the legacy campus issuer or the
// external identity provider and attaches the resolved user.
func Auth(authn authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, info, err := authn.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextUserKey, user)
		c.Set(ContextAuthKey, info)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present but never
// blocks the request.
func OptionalAuth(authn authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		user, info, err := authn.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err == nil {
			c.Set(ContextUserKey, user)
			c.Set(ContextAuthKey, info)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *models.CurrentUser {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.CurrentUser)
	return user
}

// CurrentAuth returns the verified session details or nil.
func CurrentAuth(c *gin.Context) *models.AuthInfo {
	value, exists := c.Get(ContextAuthKey)
	if !exists {
		return nil
	}
	info, _ := value.(*models.AuthInfo)
	return info
}
