// Package assemble builds complete Book aggregates from generated chapter
// text or from segmented imported content.
package assemble

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/storyforge/backend/models"
	"github.com/storyforge/backend/segment"
)

// ErrNoChapters signals that assembly would produce a book with an empty
// chapter sequence, which is never allowed.
var ErrNoChapters = errors.New("no chapters to assemble")

const (
	promptExcerptRunes = 500
	coverExcerptRunes  = 15
)

type GeneratedInput struct {
	UserID      primitive.ObjectID
	Title       string
	Genre       string
	Themes      string
	Prompt      string
	NumChapters int
}

type ImportInput struct {
	UserID  primitive.ObjectID
	Title   string
	Genre   string
	Content string
}

// FromGenerated builds a Book from AI-generated chapter bodies. Chapters are
// titled "Chapter 1".."Chapter n" in order.
func FromGenerated(in GeneratedInput, chapters []string) (*models.Book, error) {
	if len(chapters) == 0 {
		return nil, ErrNoChapters
	}
	book := newBook(in.UserID, in.Title, in.Genre)
	book.Prompt = in.Prompt
	book.Themes = in.Themes
	book.NumChapters = in.NumChapters
	if book.NumChapters == 0 {
		book.NumChapters = len(chapters)
	}
	for i, content := range chapters {
		book.Chapters = append(book.Chapters, models.Chapter{
			ID:      chapterID(book.ID, i+1),
			Title:   fmt.Sprintf("Chapter %d", i+1),
			Content: content,
		})
	}
	return book, nil
}

// FromImport builds a Book from segmenter output. The book's prompt is an
// excerpt of the pasted content.
func FromImport(in ImportInput, parts []segment.Part) (*models.Book, error) {
	if len(parts) == 0 {
		return nil, ErrNoChapters
	}
	book := newBook(in.UserID, in.Title, in.Genre)
	book.Prompt = truncateRunes(in.Content, promptExcerptRunes)
	book.NumChapters = len(parts)
	for i, p := range parts {
		book.Chapters = append(book.Chapters, models.Chapter{
			ID:      chapterID(book.ID, i+1),
			Title:   p.Title,
			Content: p.Content,
		})
	}
	return book, nil
}

func newBook(userID primitive.ObjectID, title, genre string) *models.Book {
	id := uuid.NewString()
	return &models.Book{
		ID:            id,
		UserID:        userID,
		Title:         title,
		Genre:         genre,
		Status:        models.StatusCompleted,
		LastModified:  time.Now().UTC().Truncate(time.Millisecond),
		CoverImageURL: PlaceholderCoverURL(title),
	}
}

func chapterID(bookID string, n int) string {
	return fmt.Sprintf("%s-chapter-%d", bookID, n)
}

// PlaceholderCoverURL returns the cover shown until image generation
// finishes, encoding a short excerpt of the title.
func PlaceholderCoverURL(title string) string {
	excerpt := truncateRunes(strings.TrimSpace(title), coverExcerptRunes)
	return "https://placehold.co/300x450.png?text=" + url.QueryEscape(excerpt)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
