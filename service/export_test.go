package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge/backend/models"
)

func TestExportChapterTXT(t *testing.T) {
	book := &models.Book{ID: "b1", Title: "The Last Stargazer", Genre: "Science Fiction"}
	ch := &models.Chapter{ID: "b1-chapter-1", Title: "Chapter 1", Content: "The sky went dark."}

	data, contentType, filename, err := ExportChapter(book, ch, FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1\n\nThe sky went dark.\n", string(data))
	assert.Equal(t, "text/plain; charset=utf-8", contentType)
	assert.Equal(t, "the-last-stargazer-chapter-1.txt", filename)
}

func TestExportChapterEPUB(t *testing.T) {
	book := &models.Book{ID: "b1", Title: "The Last Stargazer", Genre: "Science Fiction"}
	ch := &models.Chapter{ID: "b1-chapter-1", Title: "Chapter 1", Content: "First paragraph.\n\nSecond paragraph."}

	data, contentType, filename, err := ExportChapter(book, ch, FormatEPUB)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	// EPUB files are zip archives.
	assert.Equal(t, "PK", string(data[:2]))
	assert.Equal(t, "application/epub+zip", contentType)
	assert.Equal(t, "the-last-stargazer-chapter-1.epub", filename)
}

func TestExportChapterUnsupportedFormat(t *testing.T) {
	book := &models.Book{ID: "b1", Title: "T"}
	ch := &models.Chapter{ID: "b1-chapter-1", Title: "Chapter 1"}
	_, _, _, err := ExportChapter(book, ch, "docx")
	assert.Error(t, err)
}
