package firestore

import (
	"context"
	"errors"
	"fmt"
	"log"

	gfs "cloud.google.com/go/firestore"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

var errTooManyWrites = errors.New("cascade exceeds transaction write limit")

func (s *Store) booksOf(authorID string) gfs.Query {
	return s.client.Collection(entities.CollectionBooks).Where("authorId", "==", authorID)
}

func (s *Store) chaptersOf(bookID string) gfs.Query {
	return s.client.Collection(entities.CollectionChapters).Where("bookId", "==", bookID)
}

// DeleteAuthorCascade removes the author, its books and their chapters.
func (s *Store) DeleteAuthorCascade(ctx context.Context, authorID string) (store.CascadeResult, error) {
	parent := s.client.Collection(entities.CollectionAuthors).Doc(authorID)

	var result store.CascadeResult
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		result = store.CascadeResult{}

		books, err := tx.Documents(s.booksOf(authorID)).GetAll()
		if err != nil {
			return err
		}
		var chapters []*gfs.DocumentSnapshot
		for _, b := range books {
			docs, err := tx.Documents(s.chaptersOf(b.Ref.ID)).GetAll()
			if err != nil {
				return err
			}
			chapters = append(chapters, docs...)
		}
		exists, err := docExists(tx, parent)
		if err != nil {
			return err
		}

		if len(books)+len(chapters)+1 > maxTransactionWrites {
			return errTooManyWrites
		}

		for _, c := range chapters {
			if err := tx.Delete(c.Ref); err != nil {
				return err
			}
		}
		for _, b := range books {
			if err := tx.Delete(b.Ref); err != nil {
				return err
			}
		}
		if err := tx.Delete(parent); err != nil {
			return err
		}

		result.Chapters = int64(len(chapters))
		result.Books = int64(len(books))
		if exists {
			result.Authors = 1
		}
		return nil
	})
	if errors.Is(err, errTooManyWrites) {
		return s.deleteAuthorSaga(ctx, authorID)
	}
	if err != nil {
		return store.CascadeResult{}, fmt.Errorf("firestore: delete author %s: %w", authorID, err)
	}
	return result, nil
}

// DeleteBookCascade removes the book and its chapters.
func (s *Store) DeleteBookCascade(ctx context.Context, bookID string) (store.CascadeResult, error) {
	parent := s.client.Collection(entities.CollectionBooks).Doc(bookID)

	var result store.CascadeResult
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		result = store.CascadeResult{}

		chapters, err := tx.Documents(s.chaptersOf(bookID)).GetAll()
		if err != nil {
			return err
		}
		exists, err := docExists(tx, parent)
		if err != nil {
			return err
		}

		if len(chapters)+1 > maxTransactionWrites {
			return errTooManyWrites
		}

		for _, c := range chapters {
			if err := tx.Delete(c.Ref); err != nil {
				return err
			}
		}
		if err := tx.Delete(parent); err != nil {
			return err
		}

		result.Chapters = int64(len(chapters))
		if exists {
			result.Books = 1
		}
		return nil
	})
	if errors.Is(err, errTooManyWrites) {
		return s.deleteBookSaga(ctx, bookID)
	}
	if err != nil {
		return store.CascadeResult{}, fmt.Errorf("firestore: delete book %s: %w", bookID, err)
	}
	return result, nil
}

// deleteAuthorSaga deletes the parent first so a partial failure only leaves orphans.
func (s *Store) deleteAuthorSaga(ctx context.Context, authorID string) (store.CascadeResult, error) {
	log.Printf("[CASCADE] author %s exceeds transaction limit, deleting in batches", authorID)

	var result store.CascadeResult
	if _, err := s.client.Collection(entities.CollectionAuthors).Doc(authorID).Delete(ctx); err != nil {
		return result, fmt.Errorf("firestore: delete author %s: %w", authorID, err)
	}
	result.Authors = 1

	books, err := s.booksOf(authorID).Documents(ctx).GetAll()
	if err != nil {
		return result, fmt.Errorf("firestore: list books of %s: %w", authorID, err)
	}

	chapterSets := make([][]*gfs.DocumentSnapshot, len(books))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, b := range books {
		g.Go(func() error {
			docs, err := s.chaptersOf(b.Ref.ID).Documents(gctx).GetAll()
			if err != nil {
				return err
			}
			chapterSets[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, fmt.Errorf("firestore: list chapters of %s: %w", authorID, err)
	}

	var refs []*gfs.DocumentRef
	for _, set := range chapterSets {
		for _, c := range set {
			refs = append(refs, c.Ref)
		}
	}
	result.Chapters = int64(len(refs))
	for _, b := range books {
		refs = append(refs, b.Ref)
	}
	result.Books = int64(len(books))

	if err := s.bulkDelete(ctx, refs); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Store) deleteBookSaga(ctx context.Context, bookID string) (store.CascadeResult, error) {
	log.Printf("[CASCADE] book %s exceeds transaction limit, deleting in batches", bookID)

	var result store.CascadeResult
	if _, err := s.client.Collection(entities.CollectionBooks).Doc(bookID).Delete(ctx); err != nil {
		return result, fmt.Errorf("firestore: delete book %s: %w", bookID, err)
	}
	result.Books = 1

	chapters, err := s.chaptersOf(bookID).Documents(ctx).GetAll()
	if err != nil {
		return result, fmt.Errorf("firestore: list chapters of %s: %w", bookID, err)
	}
	refs := make([]*gfs.DocumentRef, 0, len(chapters))
	for _, c := range chapters {
		refs = append(refs, c.Ref)
	}
	result.Chapters = int64(len(refs))

	if err := s.bulkDelete(ctx, refs); err != nil {
		return result, err
	}
	return result, nil
}

// SweepOrphans removes books whose author is gone, then chapters whose book is gone.
func (s *Store) SweepOrphans(ctx context.Context) (store.CascadeResult, error) {
	var result store.CascadeResult

	// Children are read before their parents, so any parent a child saw
	// at write time is still in the later snapshot unless it was deleted.
	chapters, err := s.client.Collection(entities.CollectionChapters).Documents(ctx).GetAll()
	if err != nil {
		return result, fmt.Errorf("firestore: sweep chapters: %w", err)
	}
	books, err := s.client.Collection(entities.CollectionBooks).Documents(ctx).GetAll()
	if err != nil {
		return result, fmt.Errorf("firestore: sweep books: %w", err)
	}
	authors, err := s.client.Collection(entities.CollectionAuthors).Documents(ctx).GetAll()
	if err != nil {
		return result, fmt.Errorf("firestore: sweep authors: %w", err)
	}

	authorIDs := make(map[string]bool, len(authors))
	for _, a := range authors {
		authorIDs[a.Ref.ID] = true
	}

	liveBooks := make(map[string]bool, len(books))
	var refs []*gfs.DocumentRef
	for _, b := range books {
		authorID, _ := b.Data()["authorId"].(string)
		if authorIDs[authorID] {
			liveBooks[b.Ref.ID] = true
			continue
		}
		refs = append(refs, b.Ref)
		result.Books++
	}
	for _, c := range chapters {
		bookID, _ := c.Data()["bookId"].(string)
		if liveBooks[bookID] {
			continue
		}
		refs = append(refs, c.Ref)
		result.Chapters++
	}

	if err := s.bulkDelete(ctx, refs); err != nil {
		return store.CascadeResult{}, err
	}
	if result.Total() > 0 {
		log.Printf("Orphan sweep removed %s", result)
	}
	return result, nil
}

func (s *Store) bulkDelete(ctx context.Context, refs []*gfs.DocumentRef) error {
	if len(refs) == 0 {
		return nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*gfs.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return fmt.Errorf("firestore: queue delete %s: %w", ref.Path, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var errs []error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("firestore: bulk delete: %d of %d failed: %w", len(errs), len(refs), errors.Join(errs...))
	}
	return nil
}

func docExists(tx *gfs.Transaction, ref *gfs.DocumentRef) (bool, error) {
	snap, err := tx.Get(ref)
	if snap != nil && !snap.Exists() {
		return false, nil
	}
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
