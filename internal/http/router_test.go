package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/shelf/internal/audit"
	"github.com/mrlokans/shelf/internal/auth"
	"github.com/mrlokans/shelf/internal/config"
	"github.com/mrlokans/shelf/internal/database"
	dbaudit "github.com/mrlokans/shelf/internal/database/audit"
	"github.com/mrlokans/shelf/internal/library"
	"github.com/mrlokans/shelf/internal/services"
)

const (
	testAdminEmail    = "admin@gmail.com"
	testAdminPassword = "admin123"
)

// testApp is a fully wired router over a per-test SQLite database.
type testApp struct {
	router   *gin.Engine
	db       *database.Database
	catalog  *services.Catalog
	library  *library.Library
	activity *audit.Service
	cookies  []*http.Cookie
}

func setupApp(t *testing.T, configure ...func(*RouterConfig)) *testApp {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "shelf.db"), database.WithLogLevel(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	activity := audit.NewService(dbaudit.NewRepository(db.DB))
	t.Cleanup(activity.Wait)

	catalog := services.NewCatalog(db,
		services.WithDeduper(services.NewDeduper(time.Minute)),
		services.WithActivity(activity),
	)

	lib := library.New(catalog, library.WithAutoSelect(false))
	require.NoError(t, lib.Start(context.Background()))
	t.Cleanup(lib.Close)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, lib.WaitLoaded(ctx))

	authCfg := config.Auth{
		SessionLifetime:  time.Hour,
		MaxLoginAttempts: 3,
		RateLimitWindow:  time.Minute,
		LockoutDuration:  time.Minute,
	}
	sessions, err := auth.NewSessionManager(nil, authCfg)
	require.NoError(t, err)
	gate := auth.NewGate(auth.NewStaticAuthenticator(testAdminEmail, testAdminPassword), sessions, authCfg, activity)
	t.Cleanup(gate.Stop)

	cfg := RouterConfig{
		Store:      db,
		Catalog:    catalog,
		Library:    lib,
		Sessions:   sessions,
		Middleware: auth.NewMiddleware(sessions),
		Gate:       gate,
		Activity:   activity,
		Version:    "test",
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	return &testApp{
		router:   NewRouter(cfg),
		db:       db,
		catalog:  catalog,
		library:  lib,
		activity: activity,
	}
}

// do sends a request carrying the cookies collected so far.
func (a *testApp) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	for _, cookie := range a.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		a.cookies = cookies
	}
	return w
}

func (a *testApp) get(t *testing.T, target string) *httptest.ResponseRecorder {
	return a.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func (a *testApp) sendJSON(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return a.do(t, req)
}

func (a *testApp) postForm(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req)
}

func (a *testApp) login(t *testing.T) {
	t.Helper()
	w := a.sendJSON(t, http.MethodPost, "/api/session/login", LoginRequest{Email: testAdminEmail, Password: testAdminPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestRouter_HealthAndPing(t *testing.T) {
	app := setupApp(t)

	w := app.get(t, "/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())

	w = app.get(t, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "sqlite", health.Backend)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	app := setupApp(t)

	w := app.get(t, "/")

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRouter_CSRFProtectsForms(t *testing.T) {
	app := setupApp(t, func(cfg *RouterConfig) {
		cfg.CSRFSecret = bytes.Repeat([]byte("k"), 32)
	})
	app.login(t)

	w := app.postForm(t, "/ui/authors", url.Values{"name": {"Orwell"}})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "alert=")
	assert.Empty(t, app.library.Authors.Items())

	// The JSON API relies on the session cookie and is not CSRF checked.
	w = app.sendJSON(t, http.MethodPost, "/api/authors", map[string]string{"name": "Orwell"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRouter_ReadOnlyRefusesWrites(t *testing.T) {
	app := setupApp(t, func(cfg *RouterConfig) {
		cfg.ReadOnly = true
	})
	app.login(t)

	w := app.sendJSON(t, http.MethodPost, "/api/authors", map[string]string{"name": "Orwell"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.postForm(t, "/ui/authors", url.Values{"name": {"Orwell"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "alert=")

	w = app.get(t, "/")
	assert.Contains(t, w.Body.String(), "Read-only")
	assert.Empty(t, app.library.Authors.Items())
}
