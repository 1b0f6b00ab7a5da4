package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
)

const entityChapter = "chapter"

type ChapterService struct {
	base
}

func NewChapterService(s store.Store, opts ...Option) *ChapterService {
	return &ChapterService{base: newBase(s, opts)}
}

// SortChapters orders by chapter number; equal numbers keep their snapshot order.
func SortChapters(chapters []entities.Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].ChapterNumber < chapters[j].ChapterNumber
	})
}

func (s *ChapterService) SubscribeToChapters(ctx context.Context, callback func([]entities.Chapter)) (func(), error) {
	return subscribe(ctx, s.store.Chapters(), SortChapters, callback)
}

func (s *ChapterService) GetChapter(ctx context.Context, id string) (*entities.Chapter, error) {
	return s.store.Chapters().Get(ctx, id)
}

func (s *ChapterService) AddChapter(ctx context.Context, chapter entities.Chapter) (string, error) {
	chapter.ID = ""

	id, reused, err := s.add(ctx, entities.CollectionChapters, chapter, func() (string, error) {
		s.stamp(&chapter.Record)
		return s.store.Chapters().Insert(ctx, chapter)
	})
	if !reused {
		s.activity.LogMutation(ctx, entities.AuditEventCreate, entityChapter, id, "Added chapter "+chapter.Title, err)
	}
	if err != nil {
		return "", fmt.Errorf("add chapter: %w", err)
	}
	return id, nil
}

func (s *ChapterService) UpdateChapter(ctx context.Context, id string, patch entities.ChapterPatch) error {
	var title string
	err := s.store.Chapters().Update(ctx, id, func(c *entities.Chapter) {
		patch.Apply(c)
		c.UpdatedAt = s.now().UTC()
		title = c.Title
	})
	s.activity.LogMutation(ctx, entities.AuditEventUpdate, entityChapter, id, "Updated chapter "+title, err)
	if err != nil {
		return fmt.Errorf("update chapter %s: %w", id, err)
	}
	return nil
}

// RemoveChapter deletes a single chapter. Removing a missing id succeeds.
func (s *ChapterService) RemoveChapter(ctx context.Context, id string) error {
	err := s.store.Chapters().Delete(ctx, id)
	s.activity.LogMutation(ctx, entities.AuditEventDelete, entityChapter, id, "Removed chapter", err)
	if err != nil {
		return fmt.Errorf("remove chapter %s: %w", id, err)
	}
	return nil
}
