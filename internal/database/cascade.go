package database

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

// DeleteAuthorCascade removes the author, its books and their chapters in one transaction.
func (d *Database) DeleteAuthorCascade(ctx context.Context, authorID string) (store.CascadeResult, error) {
	var result store.CascadeResult

	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookIDs := tx.Model(&entities.Book{}).Select("id").Where("author_id = ?", authorID)

		res := tx.Where("book_id IN (?)", bookIDs).Delete(&entities.Chapter{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete chapters: %w", res.Error)
		}
		result.Chapters = res.RowsAffected

		res = tx.Where("author_id = ?", authorID).Delete(&entities.Book{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete books: %w", res.Error)
		}
		result.Books = res.RowsAffected

		res = tx.Where("id = ?", authorID).Delete(&entities.Author{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete author: %w", res.Error)
		}
		result.Authors = res.RowsAffected
		return nil
	})
	if err != nil {
		return store.CascadeResult{}, fmt.Errorf("delete author %s: %w", authorID, err)
	}

	d.notifyCascade(result)
	return result, nil
}

// DeleteBookCascade removes the book and its chapters in one transaction.
func (d *Database) DeleteBookCascade(ctx context.Context, bookID string) (store.CascadeResult, error) {
	var result store.CascadeResult

	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("book_id = ?", bookID).Delete(&entities.Chapter{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete chapters: %w", res.Error)
		}
		result.Chapters = res.RowsAffected

		res = tx.Where("id = ?", bookID).Delete(&entities.Book{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete book: %w", res.Error)
		}
		result.Books = res.RowsAffected
		return nil
	})
	if err != nil {
		return store.CascadeResult{}, fmt.Errorf("delete book %s: %w", bookID, err)
	}

	d.notifyCascade(result)
	return result, nil
}

// SweepOrphans removes books without an author, then chapters without a book.
func (d *Database) SweepOrphans(ctx context.Context) (store.CascadeResult, error) {
	var result store.CascadeResult

	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		authorIDs := tx.Model(&entities.Author{}).Select("id")
		res := tx.Where("author_id NOT IN (?)", authorIDs).Delete(&entities.Book{})
		if res.Error != nil {
			return fmt.Errorf("failed to sweep books: %w", res.Error)
		}
		result.Books = res.RowsAffected

		bookIDs := tx.Model(&entities.Book{}).Select("id")
		res = tx.Where("book_id NOT IN (?)", bookIDs).Delete(&entities.Chapter{})
		if res.Error != nil {
			return fmt.Errorf("failed to sweep chapters: %w", res.Error)
		}
		result.Chapters = res.RowsAffected
		return nil
	})
	if err != nil {
		return store.CascadeResult{}, err
	}

	if result.Total() > 0 {
		log.Printf("Orphan sweep removed %s", result)
	}
	d.notifyCascade(result)
	return result, nil
}

func (d *Database) notifyCascade(result store.CascadeResult) {
	var changed []string
	if result.Authors > 0 {
		changed = append(changed, entities.CollectionAuthors)
	}
	if result.Books > 0 {
		changed = append(changed, entities.CollectionBooks)
	}
	if result.Chapters > 0 {
		changed = append(changed, entities.CollectionChapters)
	}
	d.notifier.Notify(changed...)
}
