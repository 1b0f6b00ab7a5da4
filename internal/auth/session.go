package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/mrlokans/shelf/internal/config"
	"github.com/mrlokans/shelf/internal/library"
)

// Session data keys
const (
	SessionKeyIsAdmin    = "is_admin"
	SessionKeyAdminEmail = "admin_email"
	SessionKeyLoginAt    = "login_at"
	SessionKeyNav        = "nav"
)

func init() {
	// Register types that will be stored in sessions
	gob.Register(time.Time{})
	gob.Register(library.NavState{})
}

// Session is what the application knows about a visitor.
type Session struct {
	IsAdmin    bool      `json:"isAdmin"`
	AdminEmail string    `json:"adminEmail,omitempty"`
	LoginAt    time.Time `json:"loginAt,omitempty"`
}

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager backed by the SQLite
// database behind sqlDB. With a nil sqlDB sessions are kept in memory.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	sm := scs.New()

	if sqlDB != nil {
		_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
		if err != nil {
			return nil, err
		}
		sm.Store = sqlite3store.New(sqlDB)
	} else {
		sm.Store = memstore.New()
	}

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2

	sm.Cookie.Name = "shelf_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession marks the session as an admin session for p.
// The token is renewed to prevent session fixation; navigation state survives.
func (sm *SessionManager) CreateSession(ctx context.Context, p Principal, now time.Time) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, SessionKeyIsAdmin, p.IsAdmin)
	sm.Put(ctx, SessionKeyAdminEmail, p.Email)
	sm.Put(ctx, SessionKeyLoginAt, now)
	return nil
}

// DestroySession removes all session data and invalidates the token.
func (sm *SessionManager) DestroySession(ctx context.Context) error {
	return sm.Destroy(ctx)
}

// GetSession reads the session. Visitors who never logged in get the zero Session.
func (sm *SessionManager) GetSession(ctx context.Context) Session {
	loginAt, _ := sm.Get(ctx, SessionKeyLoginAt).(time.Time)
	return Session{
		IsAdmin:    sm.GetBool(ctx, SessionKeyIsAdmin),
		AdminEmail: sm.GetString(ctx, SessionKeyAdminEmail),
		LoginAt:    loginAt,
	}
}

// GetNav returns the visitor's navigation state.
func (sm *SessionManager) GetNav(ctx context.Context) library.NavState {
	if nav, ok := sm.Get(ctx, SessionKeyNav).(library.NavState); ok {
		return nav
	}
	return library.NewNavState()
}

// PutNav stores nav when it changed.
func (sm *SessionManager) PutNav(ctx context.Context, nav library.NavState) {
	if current, ok := sm.Get(ctx, SessionKeyNav).(library.NavState); ok && current == nav {
		return
	}
	sm.Put(ctx, SessionKeyNav, nav)
}
