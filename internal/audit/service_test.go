package audit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditRepo "github.com/mrlokans/shelf/internal/database/audit"
	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every goroutine on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	repo := auditRepo.NewRepository(db)
	return NewService(repo), db
}

func TestActorFrom(t *testing.T) {
	assert.Equal(t, SystemActor, ActorFrom(context.Background()))
	assert.Equal(t, "admin@gmail.com", ActorFrom(WithActor(context.Background(), "admin@gmail.com")))
}

func TestService_LogMutation(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := WithActor(context.Background(), "admin@gmail.com")

	t.Run("success", func(t *testing.T) {
		svc.LogMutation(ctx, entities.AuditEventCreate, "author", "a1", "Added author Orwell", nil)
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ?", "author_create").First(&event).Error)
		assert.Equal(t, "admin@gmail.com", event.Actor)
		assert.Equal(t, "a1", event.EntityID)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
	})

	t.Run("failure", func(t *testing.T) {
		svc.LogMutation(ctx, entities.AuditEventUpdate, "book", "b1", "Updated book", errors.New("disk full"))
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ?", "book_update").First(&event).Error)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
		assert.Contains(t, event.ErrorMsg, "disk full")
	})
}

func TestService_LogCascadeAndSweep(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogCascade(context.Background(), "author", "a1", store.CascadeResult{Authors: 1, Books: 2, Chapters: 3}, nil)
	svc.LogSweep(context.Background(), store.CascadeResult{Chapters: 1}, nil)
	svc.Wait()

	var cascade entities.AuditEvent
	require.NoError(t, db.Where("event_type = ?", entities.AuditEventCascade).First(&cascade).Error)
	assert.Equal(t, "Removed 1 authors, 2 books, 3 chapters", cascade.Description)
	assert.Contains(t, cascade.Metadata, `"chapters":3`)
	assert.Equal(t, SystemActor, cascade.Actor)

	events, total, err := svc.GetEvents(auditRepo.Filter{EventType: entities.AuditEventSweep}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "orphan_sweep", events[0].Action)
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogAuth("login", "admin@gmail.com", "127.0.0.1", false)
	svc.Wait()

	var event entities.AuditEvent
	require.NoError(t, db.Where("event_type = ?", entities.AuditEventAuth).First(&event).Error)
	assert.Equal(t, entities.AuditStatusFailed, event.Status)
	assert.Equal(t, "admin@gmail.com", event.Actor)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := strings.Repeat("x", 20)
	assert.Equal(t, "xxxxxxx...", truncate(long, 10))
}
