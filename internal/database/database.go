package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Database is the gorm-backed catalog store. It also owns the tables for
// users and the activity log, which every deployment keeps in SQL.
type Database struct {
	DB *gorm.DB

	backend  string
	notifier *Notifier
	authors  *Collection[entities.Author, *entities.Author]
	books    *Collection[entities.Book, *entities.Book]
	chapters *Collection[entities.Chapter, *entities.Chapter]
}

var _ store.Store = (*Database)(nil)

// Option tweaks how the database is opened.
type Option func(*gorm.Config)

// WithLogLevel overrides the gorm log level (Info by default).
func WithLogLevel(level logger.LogLevel) Option {
	return func(c *gorm.Config) {
		c.Logger = logger.Default.LogMode(level)
	}
}

// NewDatabase opens (or creates) the SQLite database at dbPath.
func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	dsn := dbPath + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := open(sqlite.Open(dsn), BackendSQLite, opts...)
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer; serialize through one connection.
	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	log.Printf("Database initialized successfully at %s", dbPath)
	return db, nil
}

// NewPostgresDatabase connects to PostgreSQL through the pgx stdlib driver.
func NewPostgresDatabase(dsn string, opts ...Option) (*Database, error) {
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	sqlDB := stdlib.OpenDB(*connCfg)

	db, err := open(postgres.New(postgres.Config{Conn: sqlDB}), BackendPostgres, opts...)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	log.Printf("Database initialized successfully at %s:%d/%s", connCfg.Host, connCfg.Port, connCfg.Database)
	return db, nil
}

func open(dialector gorm.Dialector, backend string, opts ...Option) (*Database, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Author{},
		&entities.Book{},
		&entities.Chapter{},
		&entities.User{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	notifier := NewNotifier()
	return &Database{
		DB:       db,
		backend:  backend,
		notifier: notifier,
		authors:  NewCollection[entities.Author](db, entities.CollectionAuthors, notifier),
		books:    NewCollection[entities.Book](db, entities.CollectionBooks, notifier),
		chapters: NewCollection[entities.Chapter](db, entities.CollectionChapters, notifier),
	}, nil
}

func (d *Database) Authors() store.Collection[entities.Author] {
	return d.authors
}

func (d *Database) Books() store.Collection[entities.Book] {
	return d.books
}

func (d *Database) Chapters() store.Collection[entities.Chapter] {
	return d.chapters
}

func (d *Database) Backend() string {
	return d.backend
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	d.notifier.Close()
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
