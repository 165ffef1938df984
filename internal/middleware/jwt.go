package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
	"github.com/noah-isme/edu-platform-api/pkg/response"
)

// Context keys populated by Authenticated.
const (
	ContextUserKey   = "current_user"
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "user_role"
)

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type activityRecorder interface {
	RecordActivity(ctx context.Context, user *models.User) error
}

// Authenticated parses the bearer token, re-resolves the account and stores it
// on the context. A token whose user no longer exists is rejected.
func Authenticated(auth authenticator, activity activityRecorder, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "Not authorized, no token"))
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		if activity != nil {
			if err := activity.RecordActivity(c.Request.Context(), user); err != nil {
				logger.Warn("failed to record activity", zap.String("user_id", user.ID), zap.Error(err))
			}
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextRoleKey, string(user.Role))
		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by Authenticated.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
