package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Book lifecycle states.
const (
	StatusIdle       = "idle"
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Chapter is one titled unit of narrative text, stored embedded in its Book.
// Chapter ids are "{bookId}-chapter-{n}" with n starting at 1.
type Chapter struct {
	ID      string `bson:"id" json:"id"`
	Title   string `bson:"title" json:"title"`
	Content string `bson:"content" json:"content"`
}

type Book struct {
	ID            string             `bson:"_id" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Title         string             `bson:"title" json:"title"`
	Genre         string             `bson:"genre" json:"genre"`
	Prompt        string             `bson:"prompt" json:"prompt"`
	Themes        string             `bson:"themes,omitempty" json:"themes,omitempty"`
	NumChapters   int                `bson:"numChapters" json:"numChapters"`
	Chapters      []Chapter          `bson:"chapters" json:"chapters"`
	Status        string             `bson:"status" json:"status"`
	LastModified  time.Time          `bson:"lastModified" json:"lastModified"`
	CoverImageURL string             `bson:"coverImageUrl,omitempty" json:"coverImageUrl,omitempty"`
	CoverS3Key    string             `bson:"coverS3Key,omitempty" json:"-"` // object key in S3 when the cover is stored remotely
	ImagePrompt   string             `bson:"imagePrompt,omitempty" json:"imagePrompt,omitempty"`
}

// ChapterByID returns the chapter with the given id, or nil.
func (b *Book) ChapterByID(id string) *Chapter {
	for i := range b.Chapters {
		if b.Chapters[i].ID == id {
			return &b.Chapters[i]
		}
	}
	return nil
}

// Revision is the optimistic-concurrency token clients echo back on chapter
// saves. It is the book's lastModified exactly as the store round-trips it.
func (b *Book) Revision() string {
	return b.LastModified.UTC().Format(time.RFC3339Nano)
}
