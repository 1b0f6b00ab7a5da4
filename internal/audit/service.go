// Package audit records catalog activity: every create, update and delete,
// cascades, orphan sweeps and admin logins.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/shelf/internal/database/audit"
	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

// SystemActor is recorded for work not triggered by a signed-in admin.
const SystemActor = "system"

type actorKey struct{}

// WithActor attaches the acting admin's email to ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored in ctx, or SystemActor.
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}

// Service provides high-level activity logging.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new activity service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records an event synchronously.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until background writes have finished. Called on shutdown.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogMutation records a single-record create, update or delete.
func (s *Service) LogMutation(ctx context.Context, eventType entities.AuditEventType, entityType, entityID, description string, err error) {
	event := &entities.AuditEvent{
		Actor:       ActorFrom(ctx),
		EventType:   eventType,
		Action:      entityType + "_" + string(eventType),
		Description: truncate(description, 500),
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      entities.AuditStatusSuccess,
	}
	markFailed(event, err)
	s.LogAsync(event)
}

// LogCascade records a multi-record delete rooted at entityID.
func (s *Service) LogCascade(ctx context.Context, entityType, entityID string, result store.CascadeResult, err error) {
	event := &entities.AuditEvent{
		Actor:       ActorFrom(ctx),
		EventType:   entities.AuditEventCascade,
		Action:      entityType + "_delete",
		Description: "Removed " + result.String(),
		EntityType:  entityType,
		EntityID:    entityID,
		Metadata:    metadata(result),
		Status:      entities.AuditStatusSuccess,
	}
	markFailed(event, err)
	s.LogAsync(event)
}

// LogSweep records an orphan sweep run.
func (s *Service) LogSweep(ctx context.Context, result store.CascadeResult, err error) {
	event := &entities.AuditEvent{
		Actor:       ActorFrom(ctx),
		EventType:   entities.AuditEventSweep,
		Action:      "orphan_sweep",
		Description: "Swept " + result.String(),
		Metadata:    metadata(result),
		Status:      entities.AuditStatusSuccess,
	}
	markFailed(event, err)
	s.LogAsync(event)
}

// LogAuth records a login or logout attempt.
func (s *Service) LogAuth(action, email, ipAddr string, success bool) {
	event := &entities.AuditEvent{
		Actor:       email,
		EventType:   entities.AuditEventAuth,
		Action:      action,
		Description: "from " + ipAddr,
		Status:      entities.AuditStatusSuccess,
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}
	s.LogAsync(event)
}

// GetEvents retrieves paginated activity.
func (s *Service) GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func markFailed(event *entities.AuditEvent, err error) {
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
}

func metadata(result store.CascadeResult) string {
	b, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
