package services

import (
	"context"
	"time"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

// Clock returns the current time. Services stamp records with it.
type Clock func() time.Time

// ActivityRecorder receives a record of every mutation.
// *audit.Service implements it.
type ActivityRecorder interface {
	LogMutation(ctx context.Context, eventType entities.AuditEventType, entityType, entityID, description string, err error)
	LogCascade(ctx context.Context, entityType, entityID string, result store.CascadeResult, err error)
}

type noopRecorder struct{}

func (noopRecorder) LogMutation(context.Context, entities.AuditEventType, string, string, string, error) {
}

func (noopRecorder) LogCascade(context.Context, string, string, store.CascadeResult, error) {}

// Option configures a service.
type Option func(*base)

// WithClock replaces time.Now.
func WithClock(now Clock) Option {
	return func(b *base) { b.now = now }
}

// WithDeduper enables double-submit protection for Add calls.
func WithDeduper(d *Deduper) Option {
	return func(b *base) { b.dedupe = d }
}

// WithActivity records every mutation through r.
func WithActivity(r ActivityRecorder) Option {
	return func(b *base) { b.activity = r }
}

// base holds what the three entity services share.
type base struct {
	store    store.Store
	now      Clock
	dedupe   *Deduper
	activity ActivityRecorder
}

func newBase(s store.Store, opts []Option) base {
	b := base{
		store:    s,
		now:      time.Now,
		activity: noopRecorder{},
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// stamp sets both timestamps for a new record.
func (b *base) stamp(r *entities.Record) {
	now := b.now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
}

// add runs insert, deduplicating on the submission key when a deduper is set.
// The bool reports whether an earlier submission's id was returned instead.
func (b *base) add(ctx context.Context, collection string, payload any, insert func() (string, error)) (string, bool, error) {
	if b.dedupe == nil {
		id, err := insert()
		return id, false, err
	}
	key := SubmissionKey(ctx, collection, payload)
	return b.dedupe.Do(key, insert)
}
