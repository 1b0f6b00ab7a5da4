package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/auth"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgLoginFailed        = "Login failed. Please try again."
)

// SessionController signs the admin in and out.
type SessionController struct {
	gate *auth.Gate
}

func NewSessionController(gate *auth.Gate) *SessionController {
	return &SessionController{gate: gate}
}

// LoginRequest accepts either JSON or form fields.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// loginFailure maps a Gate.Login error onto a status and user-facing message.
// retryAfter is set for rate-limited attempts.
func loginFailure(err error) (status int, message string, retryAfter int) {
	var rateErr *auth.RateLimitError
	switch {
	case errors.As(err, &rateErr):
		secs := int(math.Ceil(rateErr.RetryAfter.Seconds()))
		return http.StatusTooManyRequests, "Too many login attempts. Please try again later.", secs
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrAccountLocked):
		return http.StatusUnauthorized, msgInvalidCredentials, 0
	default:
		return http.StatusInternalServerError, msgLoginFailed, 0
	}
}

// Login handles POST /api/session/login
func (sc *SessionController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	session, err := sc.gate.Login(c, req.Email, req.Password)
	if err != nil {
		status, message, retryAfter := loginFailure(err)
		if retryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
		}
		if status == http.StatusInternalServerError {
			respondInternalError(c, err, "login", message)
			return
		}
		respondError(c, status, message)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Logout handles POST /api/session/logout
func (sc *SessionController) Logout(c *gin.Context) {
	if err := sc.gate.Logout(c); err != nil {
		respondInternalError(c, err, "logout", "Logout failed. Please try again.")
		return
	}
	respondSuccess(c, "Signed out", nil)
}

// Current handles GET /api/session
func (sc *SessionController) Current(c *gin.Context) {
	c.JSON(http.StatusOK, auth.GetSession(c))
}
