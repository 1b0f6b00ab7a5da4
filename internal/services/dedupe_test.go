package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

// countingRecorder counts create events per entity id.
type countingRecorder struct {
	mu      sync.Mutex
	creates map[string]int
}

func (r *countingRecorder) LogMutation(_ context.Context, eventType entities.AuditEventType, _, entityID, _ string, _ error) {
	if eventType != entities.AuditEventCreate {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.creates == nil {
		r.creates = map[string]int{}
	}
	r.creates[entityID]++
}

func (r *countingRecorder) LogCascade(context.Context, string, string, store.CascadeResult, error) {}

func TestSubmissionKey(t *testing.T) {
	ctx := context.Background()
	author := entities.Author{Name: "Orwell"}

	assert.Empty(t, SubmissionKey(ctx, "authors", author))

	explicit := WithSubmissionKey(ctx, "k1")
	assert.Equal(t, "authors:key:k1", SubmissionKey(explicit, "authors", author))

	viewer := WithSubmitter(ctx, "session-1")
	k1 := SubmissionKey(viewer, "authors", author)
	k2 := SubmissionKey(viewer, "authors", entities.Author{Name: "Huxley"})
	assert.NotEmpty(t, k1)
	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1, SubmissionKey(viewer, "authors", author))
	assert.NotEqual(t, k1, SubmissionKey(WithSubmitter(ctx, "session-2"), "authors", author))
}

func TestDeduper_ReusesCompletedKey(t *testing.T) {
	d := NewDeduper(time.Minute)
	var calls int32

	fn := func() (string, error) {
		n := atomic.AddInt32(&calls, 1)
		return "id-" + string(rune('0'+n)), nil
	}

	id1, reused, err := d.Do("k", fn)
	require.NoError(t, err)
	assert.False(t, reused)

	id2, reused, err := d.Do("k", fn)
	require.NoError(t, err)
	assert.True(t, reused)
	assert.Equal(t, id1, id2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDeduper_FailureIsNotRemembered(t *testing.T) {
	d := NewDeduper(time.Minute)

	_, _, err := d.Do("k", func() (string, error) { return "", errors.New("boom") })
	require.Error(t, err)

	id, _, err := d.Do("k", func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", id)
}

func TestDeduper_EmptyKeyAlwaysRuns(t *testing.T) {
	d := NewDeduper(time.Minute)
	var calls int32
	for i := 0; i < 3; i++ {
		_, _, err := d.Do("", func() (string, error) {
			atomic.AddInt32(&calls, 1)
			return "x", nil
		})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, calls)
}

func TestAddAuthor_DoubleSubmitCreatesOneRecord(t *testing.T) {
	catalog, db := setupTestCatalog(t, WithDeduper(NewDeduper(time.Minute)))
	ctx := WithSubmissionKey(context.Background(), "form-123")

	var wg sync.WaitGroup
	ids := make([]string, 5)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := catalog.Authors.AddAuthor(ctx, entities.Author{Name: "Orwell"})
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	authors, err := db.Authors().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, authors, 1)
}

func TestAdd_ReusedSubmissionLogsOneCreate(t *testing.T) {
	recorder := &countingRecorder{}
	catalog, _ := setupTestCatalog(t, WithDeduper(NewDeduper(time.Minute)), WithActivity(recorder))
	ctx := WithSubmissionKey(context.Background(), "form-456")

	authorID, err := catalog.Authors.AddAuthor(ctx, entities.Author{Name: "Orwell"})
	require.NoError(t, err)
	again, err := catalog.Authors.AddAuthor(ctx, entities.Author{Name: "Orwell"})
	require.NoError(t, err)
	assert.Equal(t, authorID, again)

	bookCtx := WithSubmissionKey(context.Background(), "form-457")
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := catalog.Books.AddBook(bookCtx, entities.Book{AuthorID: authorID, Title: "1984", Year: "1949"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	require.Len(t, recorder.creates, 2)
	for id, n := range recorder.creates {
		assert.Equal(t, 1, n, id)
	}
}

func TestDeduper_ConcurrentCallersShareOneRun(t *testing.T) {
	d := NewDeduper(time.Minute)
	release := make(chan struct{})
	var calls, fresh int32

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, reused, err := d.Do("k", func() (string, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return "id", nil
			})
			assert.NoError(t, err)
			if !reused {
				atomic.AddInt32(&fresh, 1)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&fresh))
}
