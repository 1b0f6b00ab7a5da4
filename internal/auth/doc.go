// Package auth gates catalog mutations behind an admin session.
//
// Every visitor gets a server-side session (scs). Logging in stores a Session
// value (is_admin, admin_email, login_at) in it; logging out destroys it.
// Credentials are checked by a pluggable Authenticator:
//   - "static": one configured credential pair (ADMIN_EMAIL / ADMIN_PASSWORD)
//   - "local": admin accounts in the users table with bcrypt hashes and lockout
//
// # Configuration
//
//	AUTH_MODE=static                       # or local
//	AUTH_SESSION_SECRET=<hex-32-bytes>     # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h              # Session duration
//	AUTH_BCRYPT_COST=12                    # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true               # HTTPS-only cookies
//
// # Usage
//
//	sessions, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	mw := auth.NewMiddleware(sessions)
//	router.Use(sessions.SessionLoadSave(), mw.LoadSession())
//	admin := router.Group("/api", mw.RequireAdmin())
//
// Read the session in handlers:
//
//	session := auth.GetSession(c)
package auth
