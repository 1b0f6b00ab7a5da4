package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeStatic AuthMode = "static" // Single configured admin credential pair (default)
	AuthModeLocal  AuthMode = "local"  // Local user database with bcrypt hashes
)

type StoreBackend string

const (
	StoreSQLite    StoreBackend = "sqlite"
	StorePostgres  StoreBackend = "postgres"
	StoreFirestore StoreBackend = "firestore"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Firestore
		Auth
		Library
		Audit
		Tasks
		Sweep
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Backend StoreBackend
		Path    string // SQLite file for users, activity, sessions (and the catalog on sqlite)
		DSN     string // PostgreSQL connection string
		Debug   bool   // Log every SQL statement
	}
	Firestore struct {
		ProjectID string
	}
	Auth struct {
		Mode            AuthMode
		AdminEmail      string
		AdminPassword   string
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Library struct {
		AutoSelect   bool          // Pick a random author for viewers with no selection
		DedupeWindow time.Duration // How long a completed submission key is remembered
		ReadOnly     bool          // Reject catalog writes, even from admins
	}
	Audit struct {
		RetentionDays int
	}
	Tasks struct {
		Enabled         bool
		DatabasePath    string
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Sweep struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
)

// LoadDotEnv loads KEY=VALUE pairs from path into the environment.
// A missing file is not an error; variables already set are kept.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	log.Printf("Loaded environment from %s", path)
	return nil
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	// Store defaults
	v.SetDefault("store_backend", string(StoreSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_debug", false)
	v.SetDefault("firestore_project_id", "")

	// Auth defaults
	v.SetDefault("auth_mode", string(AuthModeStatic))
	v.SetDefault("admin_email", DefaultAdminEmail)
	v.SetDefault("admin_password", DefaultAdminPassword)
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", false)    // Plain HTTP works out of the box
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Library defaults
	v.SetDefault("library_auto_select", true)
	v.SetDefault("submit_dedupe_window", "10s")
	v.SetDefault("library_read_only", false)

	v.SetDefault("audit_retention_days", 30)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_database_path", DefaultTasksDatabasePath)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Orphan sweep defaults
	v.SetDefault("sweep_enabled", true)
	v.SetDefault("sweep_schedule", "0 3 * * *") // Daily at 03:00

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Backend: StoreBackend(v.GetString("STORE_BACKEND")),
			Path:    v.GetString("DATABASE_PATH"),
			DSN:     v.GetString("DATABASE_DSN"),
			Debug:   v.GetBool("DATABASE_DEBUG"),
		},
		Firestore: Firestore{
			ProjectID: v.GetString("FIRESTORE_PROJECT_ID"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			AdminEmail:       v.GetString("ADMIN_EMAIL"),
			AdminPassword:    v.GetString("ADMIN_PASSWORD"),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Library: Library{
			AutoSelect:   v.GetBool("LIBRARY_AUTO_SELECT"),
			DedupeWindow: v.GetDuration("SUBMIT_DEDUPE_WINDOW"),
			ReadOnly:     v.GetBool("LIBRARY_READ_ONLY"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			DatabasePath:    v.GetString("TASKS_DATABASE_PATH"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Sweep: Sweep{
			Enabled:  v.GetBool("SWEEP_ENABLED"),
			Schedule: v.GetString("SWEEP_SCHEDULE"),
		},
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Database.Backend {
	case StoreSQLite:
	case StorePostgres:
		if c.Database.DSN == "" {
			return errors.New("DATABASE_DSN is required for the postgres backend")
		}
	case StoreFirestore:
		if c.Firestore.ProjectID == "" {
			return errors.New("FIRESTORE_PROJECT_ID is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Database.Backend)
	}

	switch c.Auth.Mode {
	case AuthModeStatic:
		if c.Auth.AdminEmail == "" || c.Auth.AdminPassword == "" {
			return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required for static auth")
		}
	case AuthModeLocal:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode)
	}
	return nil
}
