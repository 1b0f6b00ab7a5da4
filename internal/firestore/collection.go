package firestore

import (
	"context"
	"errors"
	"fmt"
	"log"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

type record interface {
	entities.Author | entities.Book | entities.Chapter
}

// Collection implements store.Collection over one Firestore collection.
type Collection[T record] struct {
	client *gfs.Client
	name   string
}

func newCollection[T record](client *gfs.Client, name string) *Collection[T] {
	return &Collection[T]{client: client, name: name}
}

func (c *Collection[T]) ref() *gfs.CollectionRef {
	return c.client.Collection(c.name)
}

func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	iter := c.ref().Documents(ctx)
	defer iter.Stop()

	items, err := decodeAll[T](iter)
	if err != nil {
		return nil, fmt.Errorf("firestore: list %s: %w", c.name, err)
	}
	return items, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	snap, err := c.ref().Doc(id).Get(ctx)
	if isNotFound(err) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore: get %s/%s: %w", c.name, id, err)
	}
	item, err := decode[T](snap)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Collection[T]) Insert(ctx context.Context, item T) (string, error) {
	doc := c.ref().NewDoc()
	if _, err := doc.Create(ctx, item); err != nil {
		return "", fmt.Errorf("firestore: create in %s: %w", c.name, err)
	}
	return doc.ID, nil
}

func (c *Collection[T]) Update(ctx context.Context, id string, mutate func(*T)) error {
	doc := c.ref().Doc(id)
	err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(doc)
		if isNotFound(err) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		item, err := decode[T](snap)
		if err != nil {
			return err
		}
		mutate(&item)
		return tx.Set(doc, item)
	})
	if errors.Is(err, store.ErrNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("firestore: update %s/%s: %w", c.name, id, err)
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if _, err := c.ref().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore: delete %s/%s: %w", c.name, id, err)
	}
	return nil
}

// Watch streams query snapshots of the whole collection.
func (c *Collection[T]) Watch(ctx context.Context) (<-chan []T, error) {
	snapshots := c.ref().Snapshots(ctx)

	first, err := snapshots.Next()
	if err != nil {
		snapshots.Stop()
		return nil, fmt.Errorf("firestore: watch %s: %w", c.name, err)
	}
	initial, err := decodeAll[T](first.Documents)
	if err != nil {
		snapshots.Stop()
		return nil, err
	}

	out := make(chan []T, 1)
	out <- initial

	go func() {
		defer close(out)
		defer snapshots.Stop()

		for {
			qs, err := snapshots.Next()
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					log.Printf("[WATCH] firestore %s: %v", c.name, err)
				}
				return
			}
			items, err := decodeAll[T](qs.Documents)
			if err != nil {
				log.Printf("[WATCH] firestore %s: %v", c.name, err)
				continue
			}
			select {
			case out <- items:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func decode[T record](snap *gfs.DocumentSnapshot) (T, error) {
	var item T
	if err := snap.DataTo(&item); err != nil {
		return item, fmt.Errorf("firestore: decode %s: %w", snap.Ref.Path, err)
	}
	setID(&item, snap.Ref.ID)
	return item, nil
}

func decodeAll[T record](iter *gfs.DocumentIterator) ([]T, error) {
	items := make([]T, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		item, err := decode[T](snap)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func setID(item any, id string) {
	if r, ok := item.(interface{ Base() *entities.Record }); ok {
		r.Base().ID = id
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
