// Package readonly freezes the catalog: visitors keep browsing and signing in,
// but every create, edit and delete is refused.
package readonly

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// Message is shown to callers whose write was refused.
const Message = "The library is read-only right now"

// ContextKey marks requests served while the catalog is frozen.
const ContextKey = "read_only"

// Middleware blocks catalog writes when enabled.
// GET, HEAD and OPTIONS always pass, as do the session and navigation
// endpoints, which only touch the visitor's own session.
type Middleware struct {
	enabled bool
}

func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a gin middleware that refuses writes.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKey, m.enabled)
		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		respondBlocked(c)
	}
}

var allowedPrefixes = []string{
	"/api/session/",
	"/api/library/",
	"/ui/session/",
	"/ui/nav/",
}

func isAllowedPath(path string) bool {
	for _, allowed := range allowedPrefixes {
		if strings.HasPrefix(path, allowed) {
			return true
		}
	}
	return false
}

// respondBlocked answers JSON callers with 403 and sends form posts back to
// the page with the message in the alert banner.
func respondBlocked(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || strings.Contains(c.GetHeader("Accept"), "application/json") {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     Message,
			"read_only": true,
		})
		return
	}

	c.Redirect(http.StatusSeeOther, "/?alert="+url.QueryEscape(Message))
	c.Abort()
}

// IsReadOnly reports whether the request was served in read-only mode.
func IsReadOnly(c *gin.Context) bool {
	return c.GetBool(ContextKey)
}
