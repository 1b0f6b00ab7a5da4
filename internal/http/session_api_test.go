package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelf/internal/auth"
)

func TestSessionController_LoginLogout(t *testing.T) {
	app := setupApp(t)

	session := decode[auth.Session](t, app.get(t, "/api/session"))
	assert.False(t, session.IsAdmin)

	app.login(t)
	session = decode[auth.Session](t, app.get(t, "/api/session"))
	assert.True(t, session.IsAdmin)
	assert.Equal(t, testAdminEmail, session.AdminEmail)

	w := app.sendJSON(t, http.MethodPost, "/api/session/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	session = decode[auth.Session](t, app.get(t, "/api/session"))
	assert.False(t, session.IsAdmin)

	w = app.sendJSON(t, http.MethodPost, "/api/authors", map[string]string{"name": "Orwell"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionController_InvalidCredentials(t *testing.T) {
	app := setupApp(t)

	w := app.sendJSON(t, http.MethodPost, "/api/session/login", LoginRequest{Email: testAdminEmail, Password: "wrong"})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", decode[ErrorResponse](t, w).Error)
	assert.False(t, decode[auth.Session](t, app.get(t, "/api/session")).IsAdmin)
}

func TestSessionController_RateLimited(t *testing.T) {
	app := setupApp(t)
	bad := LoginRequest{Email: testAdminEmail, Password: "wrong"}

	for i := 0; i < 3; i++ {
		w := app.sendJSON(t, http.MethodPost, "/api/session/login", bad)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// Locked out even with the right password.
	w := app.sendJSON(t, http.MethodPost, "/api/session/login", LoginRequest{Email: testAdminEmail, Password: testAdminPassword})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestSessionController_FormLogin(t *testing.T) {
	app := setupApp(t)

	req := url.Values{"email": {testAdminEmail}, "password": {testAdminPassword}}
	w := app.postForm(t, "/api/session/login", req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[auth.Session](t, w).IsAdmin)
}
