package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/shelf/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	return db
}

func TestRepository_LogEvent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	event := &entities.AuditEvent{
		Actor:       "admin@gmail.com",
		EventType:   entities.AuditEventCreate,
		Action:      "author_create",
		Description: "Added author George Orwell",
		EntityType:  "author",
		EntityID:    "a1",
		Status:      entities.AuditStatusSuccess,
	}

	err := repo.LogEvent(event)
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_GetEvents(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	for i := 0; i < 15; i++ {
		event := &entities.AuditEvent{
			Actor:       "admin@gmail.com",
			EventType:   entities.AuditEventCreate,
			Action:      "book_create",
			EntityType:  "book",
			Description: "Test event",
			Status:      entities.AuditStatusSuccess,
			CreatedAt:   time.Now().Add(time.Duration(-i) * time.Hour),
		}
		require.NoError(t, repo.LogEvent(event))
	}

	for i := 0; i < 5; i++ {
		event := &entities.AuditEvent{
			Actor:       "system",
			EventType:   entities.AuditEventSweep,
			Action:      "orphan_sweep",
			Description: "Sweep",
			Status:      entities.AuditStatusSuccess,
		}
		require.NoError(t, repo.LogEvent(event))
	}

	t.Run("get all events", func(t *testing.T) {
		events, total, err := repo.GetEvents(Filter{}, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(20), total)
		assert.Len(t, events, 20)
	})

	t.Run("filter by actor", func(t *testing.T) {
		events, total, err := repo.GetEvents(Filter{Actor: "system"}, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		for _, e := range events {
			assert.Equal(t, entities.AuditEventSweep, e.EventType)
		}
	})

	t.Run("filter by type with pagination", func(t *testing.T) {
		events, total, err := repo.GetEvents(Filter{EventType: entities.AuditEventCreate}, 10, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(15), total)
		assert.Len(t, events, 5)
	})

	t.Run("most recent first", func(t *testing.T) {
		events, _, err := repo.GetEvents(Filter{EntityType: "book"}, 3, 0)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.False(t, events[0].CreatedAt.Before(events[1].CreatedAt))
		assert.False(t, events[1].CreatedAt.Before(events[2].CreatedAt))
	})

	t.Run("default limit", func(t *testing.T) {
		events, _, err := repo.GetEvents(Filter{}, 0, -1)
		require.NoError(t, err)
		assert.Len(t, events, 20)
	})
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	old := &entities.AuditEvent{Action: "old", Status: entities.AuditStatusSuccess, CreatedAt: time.Now().Add(-48 * time.Hour)}
	recent := &entities.AuditEvent{Action: "recent", Status: entities.AuditStatusSuccess}
	require.NoError(t, repo.LogEvent(old))
	require.NoError(t, repo.LogEvent(recent))

	deleted, err := repo.DeleteOldEvents(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetEventByID(old.ID)
	assert.Error(t, err)

	got, err := repo.GetEventByID(recent.ID)
	require.NoError(t, err)
	assert.Equal(t, "recent", got.Action)
}
