package http

import (
	"context"
	"io"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/services"
)

// streamBuffer bounds how many snapshots may queue for a slow client.
const streamBuffer = 16

type streamEvent struct {
	name string
	data any
}

// StreamController pushes live catalog snapshots to browsers over server-sent events.
type StreamController struct {
	catalog *services.Catalog
}

func NewStreamController(catalog *services.Catalog) *StreamController {
	return &StreamController{catalog: catalog}
}

// Stream handles GET /api/stream
// Each connection gets its own subscriptions; the first event of each kind is the full snapshot.
func (sc *StreamController) Stream(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	var unsubs []func()
	// Cancel first so callbacks blocked on a full buffer can return.
	defer func() {
		cancel()
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	events := make(chan streamEvent, streamBuffer)
	send := func(name string, data any) {
		select {
		case events <- streamEvent{name: name, data: data}:
		case <-ctx.Done():
		}
	}

	unsubAuthors, err := sc.catalog.Authors.SubscribeToAuthors(ctx, func(items []entities.Author) {
		send(entities.CollectionAuthors, items)
	})
	if err != nil {
		respondInternalError(c, err, "subscribe authors", "failed to open stream")
		return
	}
	unsubs = append(unsubs, unsubAuthors)

	unsubBooks, err := sc.catalog.Books.SubscribeToBooks(ctx, func(items []entities.Book) {
		send(entities.CollectionBooks, items)
	})
	if err != nil {
		respondInternalError(c, err, "subscribe books", "failed to open stream")
		return
	}
	unsubs = append(unsubs, unsubBooks)

	unsubChapters, err := sc.catalog.Chapters.SubscribeToChapters(ctx, func(items []entities.Chapter) {
		send(entities.CollectionChapters, items)
	})
	if err != nil {
		respondInternalError(c, err, "subscribe chapters", "failed to open stream")
		return
	}
	unsubs = append(unsubs, unsubChapters)

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	log.Printf("[STREAM] client %s connected", c.ClientIP())

	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-events:
			c.SSEvent(ev.name, ev.data)
			return true
		case <-ctx.Done():
			return false
		}
	})
	log.Printf("[STREAM] client %s disconnected", c.ClientIP())
}
