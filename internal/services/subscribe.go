package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/mrlokans/shelf/internal/store"
)

// subscribe opens a live subscription on coll. Each snapshot is ordered in place
// by order and handed to callback from a single goroutine.
//
// The returned func stops the subscription and waits for the callback goroutine
// to exit; it is safe to call more than once. It must not be called from
// inside callback.
func subscribe[T any](ctx context.Context, coll store.Collection[T], order func([]T), callback func([]T)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	snapshots, err := coll.Watch(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe to %s: %w", coll.Name(), err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for items := range snapshots {
			if items == nil {
				items = []T{}
			}
			order(items)
			callback(items)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
			log.Printf("[SUBSCRIBE] released %s subscription", coll.Name())
		})
	}, nil
}
