package config

// DefaultDatabasePath is the default path for the local SQLite database.
// Users, the activity log and sessions always live here; with the sqlite
// backend the catalog does too.
const DefaultDatabasePath = "./shelf.db"

// DefaultTasksDatabasePath is the default path for the task queue database.
const DefaultTasksDatabasePath = "./shelf-tasks.db"

// Default static admin credentials.
const (
	DefaultAdminEmail    = "admin@gmail.com"
	DefaultAdminPassword = "admin123"
)
