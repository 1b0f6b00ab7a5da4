package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/shelf/internal/auth"
	"github.com/mrlokans/shelf/internal/config"
	"github.com/mrlokans/shelf/internal/entities"
	http_controllers "github.com/mrlokans/shelf/internal/http"
	"github.com/mrlokans/shelf/internal/library"
	"github.com/mrlokans/shelf/internal/scheduler"
	"github.com/mrlokans/shelf/internal/tasks"
)

// Run serves the web UI and JSON API until SIGINT or SIGTERM, then shuts
// everything down within the configured timeout.
func Run(cfg *config.Config, version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return Serve(ctx, cfg, version)
}

// Serve wires the application and blocks until ctx is done.
func Serve(ctx context.Context, cfg *config.Config, version string) error {
	log.Printf("Starting BookLibrary v%s", version)

	app, err := Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}()

	lib := library.New(app.Catalog, library.WithAutoSelect(cfg.Library.AutoSelect))
	if err := lib.Start(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to catalog: %w", err)
	}
	defer lib.Close()

	sessionDB, err := app.SessionDB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	sessions, err := auth.NewSessionManager(sessionDB, cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	authenticator, err := auth.NewAuthenticator(cfg.Auth, app.Users)
	if err != nil {
		return err
	}
	if local, ok := authenticator.(*auth.UserAuthenticator); ok {
		if err := bootstrapAdmin(app, local); err != nil {
			return err
		}
	}
	log.Printf("Authentication mode: %s", cfg.Auth.Mode)

	gate := auth.NewGate(authenticator, sessions, cfg.Auth, app.Activity)
	defer gate.Stop()

	secret, err := csrfSecret(cfg.Auth.SessionSecret)
	if err != nil {
		return err
	}

	var taskClient *tasks.Client
	var maintenance *scheduler.MaintenanceScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Tasks.DatabasePath, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()
		taskClient.Register(
			tasks.NewSweepOrphansQueue(app.Store, app.Activity),
			tasks.NewCleanupActivityQueue(app.Activity),
		)
		maintenance = scheduler.NewMaintenanceScheduler(taskClient, cfg.Sweep, cfg.Audit.RetentionDays)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Store:         app.Store,
		Catalog:       app.Catalog,
		Library:       lib,
		Sessions:      sessions,
		Middleware:    auth.NewMiddleware(sessions),
		Gate:          gate,
		CSRFSecret:    secret,
		SecureCookies: cfg.Auth.SecureCookies,
		ReadOnly:      cfg.Library.ReadOnly,
		Activity:      app.Activity,
		TaskClient:    taskClient,
		Version:       version,
	})

	// Event streams never finish on their own; cancel them once shutdown begins.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelBase)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting server at %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	if taskClient != nil {
		taskCtx, cancelTasks := context.WithCancel(context.Background())
		defer cancelTasks()
		go taskClient.Start(taskCtx)

		if err := maintenance.Start(taskCtx); err != nil {
			log.Printf("WARNING: maintenance scheduler not started: %v", err)
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
		log.Printf("Shutdown Server, waiting %v before killing", timeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	log.Println("Server exiting")
	return err
}

// csrfSecret decodes a hex session secret, falls back to the raw bytes, and
// generates a throwaway one when none is configured.
func csrfSecret(configured string) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		return []byte(configured), nil
	}

	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
	}
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(secret)
}

// bootstrapAdmin creates the configured admin account on an empty users table.
func bootstrapAdmin(app *App, authenticator *auth.UserAuthenticator) error {
	count, err := app.Users.Count()
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	_, err = authenticator.CreateUser("admin", app.Config.Auth.AdminEmail, app.Config.Auth.AdminPassword, entities.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	log.Printf("Created admin account %s", app.Config.Auth.AdminEmail)
	return nil
}
