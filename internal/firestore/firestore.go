// Package firestore implements store.Store on Google Cloud Firestore.
//
// Live subscriptions use Firestore query snapshots directly. Cascading deletes
// run in a single transaction (all reads first, then writes) unless the number of
// writes exceeds the transaction limit, in which case the parent is removed first
// and children are deleted through a BulkWriter; anything a failed fallback leaves
// behind is picked up by SweepOrphans.
package firestore

import (
	"context"
	"fmt"
	"log"

	gfs "cloud.google.com/go/firestore"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

const Backend = "firestore"

// maxTransactionWrites is the Firestore limit on writes per transaction.
const maxTransactionWrites = 500

// Store is the Firestore catalog backend.
type Store struct {
	client   *gfs.Client
	authors  *Collection[entities.Author]
	books    *Collection[entities.Book]
	chapters *Collection[entities.Chapter]
}

var _ store.Store = (*Store)(nil)

// Open creates a client for projectID and checks connectivity.
// FIRESTORE_EMULATOR_HOST is honoured by the client library.
func Open(ctx context.Context, projectID string) (*Store, error) {
	client, err := gfs.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore: new client: %w", err)
	}
	s := New(client)
	if err := s.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}
	log.Printf("Firestore store initialized for project %s", projectID)
	return s, nil
}

// New wraps an existing client.
func New(client *gfs.Client) *Store {
	return &Store{
		client:   client,
		authors:  newCollection[entities.Author](client, entities.CollectionAuthors),
		books:    newCollection[entities.Book](client, entities.CollectionBooks),
		chapters: newCollection[entities.Chapter](client, entities.CollectionChapters),
	}
}

func (s *Store) Authors() store.Collection[entities.Author] {
	return s.authors
}

func (s *Store) Books() store.Collection[entities.Book] {
	return s.books
}

func (s *Store) Chapters() store.Collection[entities.Chapter] {
	return s.chapters
}

func (s *Store) Backend() string {
	return Backend
}

// Ping runs an empty transaction.
func (s *Store) Ping(ctx context.Context) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		return nil
	})
	if err != nil {
		return fmt.Errorf("firestore: could not connect: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
