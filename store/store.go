package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/storyforge/backend/models"
)

var (
	// ErrNotFound is returned when a referenced book or chapter does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write carries a stale revision token.
	ErrConflict = errors.New("revision conflict")
)

// Store is the persistence adapter for book aggregates and accounts.
type Store interface {
	CreateBook(ctx context.Context, book *models.Book) error
	BookByID(ctx context.Context, id string) (*models.Book, error)
	// BooksByUser returns the owner's books ordered by lastModified descending.
	BooksByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Book, error)
	UpdateCover(ctx context.Context, id, coverURL, coverS3Key string) error
	// UpdateChapterContent replaces one chapter's content and bumps
	// lastModified. When expected is non-nil the write is rejected with
	// ErrConflict unless the stored lastModified still matches.
	UpdateChapterContent(ctx context.Context, id, chapterID, content string, expected *time.Time) error
	// DeleteBook removes a book and returns its cover object key, if any,
	// so the caller can clean up storage.
	DeleteBook(ctx context.Context, id string) (coverS3Key string, err error)

	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	// UserByEmail returns (nil, nil) when no such user exists.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
