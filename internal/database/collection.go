package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

type recordPtr[T any] interface {
	*T
	Base() *entities.Record
}

// Collection implements store.Collection over one gorm table.
type Collection[T any, P recordPtr[T]] struct {
	db       *gorm.DB
	name     string
	notifier *Notifier
}

var (
	_ store.Collection[entities.Author]  = (*Collection[entities.Author, *entities.Author])(nil)
	_ store.Collection[entities.Book]    = (*Collection[entities.Book, *entities.Book])(nil)
	_ store.Collection[entities.Chapter] = (*Collection[entities.Chapter, *entities.Chapter])(nil)
)

// NewCollection creates a collection for table name.
func NewCollection[T any, P recordPtr[T]](db *gorm.DB, name string, notifier *Notifier) *Collection[T, P] {
	return &Collection[T, P]{db: db, name: name, notifier: notifier}
}

// NewID returns a time-ordered unique key.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (c *Collection[T, P]) Name() string {
	return c.name
}

func (c *Collection[T, P]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := c.db.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	return items, nil
}

func (c *Collection[T, P]) Get(ctx context.Context, id string) (*T, error) {
	var item T
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", c.name, id, err)
	}
	return &item, nil
}

func (c *Collection[T, P]) Insert(ctx context.Context, item T) (string, error) {
	base := P(&item).Base()
	base.ID = NewID()

	if err := c.db.WithContext(ctx).Create(&item).Error; err != nil {
		return "", fmt.Errorf("insert into %s: %w", c.name, err)
	}
	c.notifier.Notify(c.name)
	return base.ID, nil
}

func (c *Collection[T, P]) Update(ctx context.Context, id string, mutate func(*T)) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item T
		err := tx.Where("id = ?", id).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		mutate(&item)
		P(&item).Base().ID = id
		return tx.Save(&item).Error
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("update %s/%s: %w", c.name, id, err)
	}
	c.notifier.Notify(c.name)
	return nil
}

func (c *Collection[T, P]) Delete(ctx context.Context, id string) error {
	result := c.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", c.name, id, result.Error)
	}
	if result.RowsAffected > 0 {
		c.notifier.Notify(c.name)
	}
	return nil
}

func (c *Collection[T, P]) Watch(ctx context.Context) (<-chan []T, error) {
	changes, cancel := c.notifier.Listen(c.name)

	initial, err := c.List(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan []T, 1)
	out <- initial

	go func() {
		defer close(out)
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				items, err := c.List(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("[WATCH] %s: %v", c.name, err)
					continue
				}
				select {
				case out <- items:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
