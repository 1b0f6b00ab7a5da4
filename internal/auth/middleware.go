package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/audit"
	"github.com/mrlokans/shelf/internal/services"
)

// ContextKeySession is the gin context key holding the request's Session.
const ContextKeySession = "auth_session"

// Middleware exposes the session to handlers and gates admin routes.
type Middleware struct {
	sessions *SessionManager
}

func NewMiddleware(sessions *SessionManager) *Middleware {
	return &Middleware{sessions: sessions}
}

// LoadSession reads the Session into the gin context and tags the request
// context with the acting admin and the submitting visitor.
// It must run after SessionLoadSave.
func (m *Middleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		session := m.sessions.GetSession(ctx)
		c.Set(ContextKeySession, session)

		if session.IsAdmin {
			ctx = audit.WithActor(ctx, session.AdminEmail)
		}
		if token := m.sessions.Token(ctx); token != "" {
			ctx = services.WithSubmitter(ctx, token)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin rejects visitors without an admin session.
// API requests get 401 JSON; browser requests are redirected to the login modal.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetSession(c).IsAdmin {
			c.Next()
			return
		}

		if isAPIRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": ErrAuthRequired.Error(),
				"code":  http.StatusUnauthorized,
			})
			return
		}
		c.Redirect(http.StatusSeeOther, "/?modal=login")
		c.Abort()
	}
}

// GetSession retrieves the Session stored by LoadSession.
func GetSession(c *gin.Context) Session {
	if v, exists := c.Get(ContextKeySession); exists {
		if session, ok := v.(Session); ok {
			return session
		}
	}
	return Session{}
}

// IsAdmin reports whether the request carries an admin session.
func IsAdmin(c *gin.Context) bool {
	return GetSession(c).IsAdmin
}

// isAPIRequest determines if this is an API request vs web browser request.
func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
