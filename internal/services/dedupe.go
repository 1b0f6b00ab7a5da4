package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const defaultDedupeEntries = 1024

type submissionKey struct{}
type submitterKey struct{}

// WithSubmissionKey attaches a client-supplied idempotency key to ctx.
func WithSubmissionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, submissionKey{}, key)
}

// WithSubmitter attaches the identity of the submitting viewer (session token) to ctx.
func WithSubmitter(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, submitterKey{}, id)
}

// SubmissionKey derives the dedupe key for an add. An explicit key wins; otherwise
// the submitter and a hash of the normalized payload are used. Returns "" when
// neither is present, which disables deduplication for the call.
func SubmissionKey(ctx context.Context, collection string, payload any) string {
	if key, ok := ctx.Value(submissionKey{}).(string); ok && key != "" {
		return collection + ":key:" + key
	}
	submitter, ok := ctx.Value(submitterKey{}).(string)
	if !ok || submitter == "" {
		return ""
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return collection + ":" + submitter + ":" + hex.EncodeToString(sum[:])
}

// Deduper collapses repeated submissions. Concurrent calls sharing a key run fn
// once; a key that completed successfully keeps returning the same id until
// the window passes.
type Deduper struct {
	group     singleflight.Group
	completed *expirable.LRU[string, string]
}

func NewDeduper(window time.Duration) *Deduper {
	return &Deduper{
		completed: expirable.NewLRU[string, string](defaultDedupeEntries, nil, window),
	}
}

// Do runs fn under key. The bool reports whether the result was reused.
func (d *Deduper) Do(key string, fn func() (string, error)) (string, bool, error) {
	if key == "" {
		id, err := fn()
		return id, false, err
	}
	if id, ok := d.completed.Get(key); ok {
		return id, true, nil
	}

	// ran is only set by the caller whose closure singleflight executes.
	ran := false
	v, err, _ := d.group.Do(key, func() (any, error) {
		if id, ok := d.completed.Get(key); ok {
			return id, nil
		}
		ran = true
		id, err := fn()
		if err != nil {
			return "", err
		}
		d.completed.Add(key, id)
		return id, nil
	})
	if err != nil {
		return "", !ran, err
	}
	return v.(string), !ran, nil
}
