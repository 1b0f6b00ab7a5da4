package library

import (
	"context"
	"sync"
)

// SubscribeFunc matches the SubscribeToX methods of the entity services.
type SubscribeFunc[T any] func(ctx context.Context, callback func([]T)) (func(), error)

// Hook holds the latest snapshot of one collection.
// The array is replaced wholesale on every snapshot and never mutated in place.
type Hook[T any] struct {
	// startMu serializes Start and Stop. It is separate from mu because
	// subscribe may deliver the first snapshot through Set before returning.
	startMu sync.Mutex

	mu          sync.RWMutex
	items       []T
	loading     bool
	loaded      chan struct{}
	unsubscribe func()
	onChange    func()
}

func NewHook[T any]() *Hook[T] {
	return &Hook[T]{
		items:   []T{},
		loading: true,
		loaded:  make(chan struct{}),
	}
}

// Start subscribes the hook. It is a no-op when the hook is already running.
func (h *Hook[T]) Start(ctx context.Context, subscribe SubscribeFunc[T]) error {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	h.mu.RLock()
	running := h.unsubscribe != nil
	h.mu.RUnlock()
	if running {
		return nil
	}

	unsubscribe, err := subscribe(ctx, h.Set)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.unsubscribe = unsubscribe
	h.mu.Unlock()
	return nil
}

// Stop releases the subscription.
func (h *Hook[T]) Stop() {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	h.mu.Lock()
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	h.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Set replaces the snapshot and clears the loading flag.
func (h *Hook[T]) Set(items []T) {
	h.mu.Lock()
	h.items = items
	if h.loading {
		h.loading = false
		close(h.loaded)
	}
	onChange := h.onChange
	h.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

// Items returns the current snapshot. Callers must not modify it.
func (h *Hook[T]) Items() []T {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.items
}

func (h *Hook[T]) Loading() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loading
}

// Loaded is closed once the first snapshot arrived.
func (h *Hook[T]) Loaded() <-chan struct{} {
	return h.loaded
}

func (h *Hook[T]) setOnChange(fn func()) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}
