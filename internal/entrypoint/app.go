package entrypoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/shelf/internal/audit"
	"github.com/mrlokans/shelf/internal/config"
	"github.com/mrlokans/shelf/internal/database"
	dbaudit "github.com/mrlokans/shelf/internal/database/audit"
	"github.com/mrlokans/shelf/internal/database/users"
	"github.com/mrlokans/shelf/internal/firestore"
	"github.com/mrlokans/shelf/internal/services"
	"github.com/mrlokans/shelf/internal/store"
)

// App holds the components every command shares: the catalog store, the SQL
// database that keeps accounts and activity, and the services on top of them.
type App struct {
	Config   *config.Config
	Store    store.Store
	SQL      *database.Database
	Users    *users.Repository
	Activity *audit.Service
	Catalog  *services.Catalog
}

// Open connects the configured store backend and builds the catalog services.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	opts := []database.Option{database.WithLogLevel(logger.Warn)}
	if cfg.Database.Debug {
		opts = []database.Option{database.WithLogLevel(logger.Info)}
	}

	app := &App{Config: cfg}
	switch cfg.Database.Backend {
	case config.StoreSQLite, "":
		db, err := openSQLite(cfg.Database.Path, opts)
		if err != nil {
			return nil, err
		}
		app.Store, app.SQL = db, db
	case config.StorePostgres:
		db, err := database.NewPostgresDatabase(cfg.Database.DSN, opts...)
		if err != nil {
			return nil, err
		}
		app.Store, app.SQL = db, db
	case config.StoreFirestore:
		fs, err := firestore.Open(ctx, cfg.Firestore.ProjectID)
		if err != nil {
			return nil, err
		}
		db, err := openSQLite(cfg.Database.Path, opts)
		if err != nil {
			fs.Close()
			return nil, err
		}
		app.Store, app.SQL = fs, db
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Database.Backend)
	}
	log.Printf("Catalog store: %s", app.Store.Backend())

	app.Users = users.NewRepository(app.SQL.DB)
	app.Activity = audit.NewService(dbaudit.NewRepository(app.SQL.DB))
	app.Catalog = services.NewCatalog(app.Store,
		services.WithDeduper(services.NewDeduper(cfg.Library.DedupeWindow)),
		services.WithActivity(app.Activity),
	)
	return app, nil
}

func openSQLite(path string, opts []database.Option) (*database.Database, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return database.NewDatabase(path, opts...)
}

// SessionDB returns the connection the session store should use, or nil when
// sessions must stay in memory because the SQL side is not SQLite.
func (a *App) SessionDB() (*sql.DB, error) {
	if a.SQL.Backend() != database.BackendSQLite {
		return nil, nil
	}
	return a.SQL.DB.DB()
}

// Close flushes pending activity writes and closes the stores.
func (a *App) Close() error {
	a.Activity.Wait()

	var errs []error
	if a.Store != store.Store(a.SQL) {
		errs = append(errs, a.Store.Close())
	}
	errs = append(errs, a.SQL.Close())
	return errors.Join(errs...)
}
