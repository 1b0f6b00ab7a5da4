package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mrlokans/shelf/internal/config"
	"github.com/mrlokans/shelf/internal/database/users"
	"github.com/mrlokans/shelf/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAuthRequired       = errors.New("authentication required")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid    = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid       = errors.New("invalid email format")
	ErrInvalidRole        = errors.New("invalid role")
)

// Principal is an authenticated identity.
type Principal struct {
	Email   string
	IsAdmin bool
}

// Authenticator checks a credential pair.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (Principal, error)
}

// NewAuthenticator picks the strategy for cfg.Mode.
func NewAuthenticator(cfg config.Auth, repo *users.Repository) (Authenticator, error) {
	switch cfg.Mode {
	case config.AuthModeStatic, "":
		return NewStaticAuthenticator(cfg.AdminEmail, cfg.AdminPassword), nil
	case config.AuthModeLocal:
		if repo == nil {
			return nil, errors.New("local auth requires a users repository")
		}
		return NewUserAuthenticator(repo, cfg), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// StaticAuthenticator accepts exactly one configured credential pair.
type StaticAuthenticator struct {
	email    string
	password string
}

func NewStaticAuthenticator(email, password string) *StaticAuthenticator {
	return &StaticAuthenticator{email: email, password: password}
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, email, password string) (Principal, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(email)), []byte(a.email)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !emailOK || !passwordOK || a.email == "" {
		return Principal{}, ErrInvalidCredentials
	}
	return Principal{Email: a.email, IsAdmin: true}, nil
}

// UserAuthenticator checks credentials against the users table.
// Accounts are locked after MaxLoginAttempts consecutive failures.
type UserAuthenticator struct {
	repo   *users.Repository
	config config.Auth
	now    func() time.Time
}

func NewUserAuthenticator(repo *users.Repository, cfg config.Auth) *UserAuthenticator {
	return &UserAuthenticator{repo: repo, config: cfg, now: time.Now}
}

func (a *UserAuthenticator) Authenticate(_ context.Context, login, password string) (Principal, error) {
	user, err := a.repo.GetUserByLogin(strings.TrimSpace(login))
	if errors.Is(err, users.ErrUserNotFound) {
		return Principal{}, ErrInvalidCredentials
	}
	if err != nil {
		return Principal{}, fmt.Errorf("failed to find user: %w", err)
	}

	now := a.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return Principal{}, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		lockout := a.config.LockoutDuration
		if lockout == 0 {
			lockout = 30 * time.Minute
		}
		if recErr := a.repo.RecordFailedLogin(user, a.maxAttempts(), lockout, now); recErr != nil {
			return Principal{}, fmt.Errorf("failed to record login attempt: %w", recErr)
		}
		return Principal{}, ErrInvalidCredentials
	}

	if err := a.repo.RecordSuccessfulLogin(user, now); err != nil {
		return Principal{}, fmt.Errorf("failed to record login: %w", err)
	}
	return Principal{Email: user.Email, IsAdmin: user.IsAdmin()}, nil
}

func (a *UserAuthenticator) maxAttempts() int {
	if a.config.MaxLoginAttempts > 0 {
		return a.config.MaxLoginAttempts
	}
	return 5
}

// CreateUser validates and stores a new account for the local strategy.
func (a *UserAuthenticator) CreateUser(username, email, password string, role entities.UserRole) (*entities.User, error) {
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	// RFC 5321 limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	switch role {
	case entities.UserRoleAdmin, entities.UserRoleViewer:
	default:
		return nil, ErrInvalidRole
	}

	hash, err := HashPassword(password, a.config.BcryptCost)
	if err != nil {
		return nil, err
	}
	return a.repo.CreateUser(username, email, hash, role)
}
