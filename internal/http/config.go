package http

import (
	"github.com/mrlokans/shelf/internal/audit"
	"github.com/mrlokans/shelf/internal/auth"
	"github.com/mrlokans/shelf/internal/library"
	"github.com/mrlokans/shelf/internal/services"
	"github.com/mrlokans/shelf/internal/store"
	"github.com/mrlokans/shelf/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Catalog
	Store   store.Store
	Catalog *services.Catalog
	Library *library.Library

	// Sessions and authentication
	Sessions   *auth.SessionManager
	Middleware *auth.Middleware
	Gate       *auth.Gate

	// CSRF protection for the HTML forms; disabled when empty
	CSRFSecret    []byte
	SecureCookies bool

	// Refuse catalog writes for everyone
	ReadOnly bool

	// Activity log (optional)
	Activity *audit.Service

	// Task queue client (optional). Without it the orphan sweep runs inline.
	TaskClient *tasks.Client

	// Application info
	Version string
}
