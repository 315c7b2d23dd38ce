package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"orderledger/internal/domain"
)

const identityKey = "identity"

const (
	SignInPath    = "/auth/signin"
	DashboardPath = "/dashboard"
)

// Attach resolves the request identity and stores it on the gin context.
// Failed lookups leave the request anonymous.
func Attach(p Provider, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		id, err := p.CurrentUser(c.Request)
		if err != nil {
			level := zap.WarnLevel
			if errors.Is(err, domain.ErrUnauthenticated) {
				level = zap.DebugLevel
			}
			logger.Log(level, "identity lookup failed", zap.Error(err), zap.String("request_id", c.GetString("request_id")))
		}
		if id != nil {
			c.Set(identityKey, id)
			c.Set("user_id", id.UserID)
		}
		c.Next()
	}
}

// FromContext returns the identity stored by Attach.
func FromContext(c *gin.Context) (*domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*domain.Identity)
	return id, ok && id != nil
}

// RequireAPI rejects anonymous API calls with 401.
func RequireAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := FromContext(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireDashboard sends anonymous dashboard visitors to sign-in and
// signed-in visitors of the auth pages back to the dashboard.
func RequireDashboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		_, signedIn := FromContext(c)
		switch {
		case hasPrefix(path, "/auth") && signedIn:
			c.Redirect(http.StatusFound, DashboardPath)
			c.Abort()
			return
		case hasPrefix(path, DashboardPath) && !signedIn:
			c.Redirect(http.StatusFound, SignInPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// hasPrefix matches whole path segments, so /dashboards is not /dashboard.
func hasPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
