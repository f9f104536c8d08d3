package assemble

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/storyforge/backend/models"
	"github.com/storyforge/backend/segment"
)

func TestFromGenerated(t *testing.T) {
	owner := primitive.NewObjectID()
	in := GeneratedInput{
		UserID:      owner,
		Title:       "The Last Stargazer",
		Genre:       "Science Fiction",
		Themes:      "loss, wonder",
		Prompt:      "An astronomer watches the stars go out one by one.",
		NumChapters: 3,
	}

	book, err := FromGenerated(in, []string{"one", "two", "three"})
	require.NoError(t, err)

	assert.NotEmpty(t, book.ID)
	assert.Equal(t, owner, book.UserID)
	assert.Equal(t, models.StatusCompleted, book.Status)
	assert.Equal(t, 3, book.NumChapters)
	assert.Equal(t, in.Prompt, book.Prompt)
	assert.Equal(t, in.Themes, book.Themes)
	assert.False(t, book.LastModified.IsZero())

	require.Len(t, book.Chapters, 3)
	seen := map[string]bool{}
	for i, ch := range book.Chapters {
		assert.Equal(t, fmt.Sprintf("%s-chapter-%d", book.ID, i+1), ch.ID)
		assert.Equal(t, fmt.Sprintf("Chapter %d", i+1), ch.Title)
		assert.False(t, seen[ch.ID], "chapter ids must be unique")
		seen[ch.ID] = true
	}
	assert.Equal(t, "one", book.Chapters[0].Content)
	assert.Equal(t, "three", book.Chapters[2].Content)
}

func TestFromGeneratedEmpty(t *testing.T) {
	book, err := FromGenerated(GeneratedInput{Title: "Empty"}, nil)
	assert.ErrorIs(t, err, ErrNoChapters)
	assert.Nil(t, book)
}

func TestFromImport(t *testing.T) {
	content := "A long prologue.\n\nChapter 1\nBody one.\nChapter 2\nBody two."
	parts := segment.Split(content)
	require.Len(t, parts, 3)

	book, err := FromImport(ImportInput{
		UserID:  primitive.NewObjectID(),
		Title:   "Found Manuscript",
		Genre:   "Mystery",
		Content: content,
	}, parts)
	require.NoError(t, err)

	assert.Equal(t, 3, book.NumChapters)
	assert.Equal(t, content, book.Prompt)
	assert.Equal(t, "Prologue", book.Chapters[0].Title)
	assert.Equal(t, book.ID+"-chapter-1", book.Chapters[0].ID)
	assert.Equal(t, book.ID+"-chapter-3", book.Chapters[2].ID)
}

func TestFromImportTruncatesPrompt(t *testing.T) {
	content := strings.Repeat("x", 600)
	book, err := FromImport(ImportInput{Title: "Long", Genre: "Epic", Content: content},
		[]segment.Part{{Title: "Chapter 1", Content: content}})
	require.NoError(t, err)
	assert.Len(t, book.Prompt, 500)
}

func TestFromImportEmpty(t *testing.T) {
	_, err := FromImport(ImportInput{Title: "Nothing"}, nil)
	assert.ErrorIs(t, err, ErrNoChapters)
}

func TestPlaceholderCoverURL(t *testing.T) {
	url := PlaceholderCoverURL("The Last Stargazer")
	assert.Equal(t, "https://placehold.co/300x450.png?text=The+Last+Starga", url)

	assert.Equal(t, "https://placehold.co/300x450.png?text=Hi", PlaceholderCoverURL("Hi"))
}

func TestBookIDsAreUnique(t *testing.T) {
	a, err := FromGenerated(GeneratedInput{Title: "A"}, []string{"x"})
	require.NoError(t, err)
	b, err := FromGenerated(GeneratedInput{Title: "B"}, []string{"x"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
