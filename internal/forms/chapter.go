package forms

import (
	"strconv"
	"strings"

	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/validators"
)

type ChapterForm struct {
	BookID  string `form:"bookId" json:"bookId"`
	Title   string `form:"title" json:"title"`
	Content string `form:"content" json:"content"`
	Number  string `form:"number" json:"number"`
}

func (f ChapterForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if !validators.IsNonEmpty(f.BookID) {
		errs[FieldBook] = MsgSelectBook
	}
	if !validators.IsNonEmpty(f.Title) {
		errs[FieldTitle] = "Chapter title is required."
	}
	if n, ok := f.number(); !ok || n < 1 {
		errs[FieldNumber] = "Chapter number must be at least 1."
	}
	return errs
}

func (f ChapterForm) number() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(f.Number))
	return n, err == nil
}

func (f ChapterForm) Payload() entities.Chapter {
	n, _ := f.number()
	return entities.Chapter{
		BookID:        strings.TrimSpace(f.BookID),
		Title:         strings.TrimSpace(f.Title),
		Content:       strings.TrimSpace(f.Content),
		ChapterNumber: n,
	}
}

type ChapterUpdateForm struct {
	ChapterForm
}

func NewChapterUpdateForm(c entities.Chapter) ChapterUpdateForm {
	return ChapterUpdateForm{ChapterForm{
		BookID:  c.BookID,
		Title:   c.Title,
		Content: c.Content,
		Number:  strconv.Itoa(c.ChapterNumber),
	}}
}

func (f ChapterUpdateForm) Payload() entities.ChapterPatch {
	c := f.ChapterForm.Payload()
	return entities.ChapterPatch{
		BookID:        &c.BookID,
		Title:         &c.Title,
		Content:       &c.Content,
		ChapterNumber: &c.ChapterNumber,
	}
}
