// Package stubs provides an in-memory Store implementation for tests.
package stubs

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/storyforge/backend/models"
	"github.com/storyforge/backend/store"
)

type MemStore struct {
	mu    sync.RWMutex
	books map[string]models.Book
	users map[primitive.ObjectID]models.User

	// FailWrites makes every mutating call return the given error,
	// simulating an unavailable store.
	FailWrites error
}

var _ store.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		books: make(map[string]models.Book),
		users: make(map[primitive.ObjectID]models.User),
	}
}

func (m *MemStore) CreateBook(_ context.Context, book *models.Book) error {
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[book.ID] = copyBook(*book)
	return nil
}

func (m *MemStore) BookByID(_ context.Context, id string) (*models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := copyBook(b)
	return &cp, nil
}

func (m *MemStore) BooksByUser(_ context.Context, userID primitive.ObjectID) ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var books []models.Book
	for _, b := range m.books {
		if b.UserID == userID {
			books = append(books, copyBook(b))
		}
	}
	sort.Slice(books, func(i, j int) bool {
		return books[i].LastModified.After(books[j].LastModified)
	})
	return books, nil
}

func (m *MemStore) UpdateCover(_ context.Context, id, coverURL, coverS3Key string) error {
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return store.ErrNotFound
	}
	b.CoverImageURL = coverURL
	b.CoverS3Key = coverS3Key
	b.LastModified = bump(b.LastModified)
	m.books[id] = b
	return nil
}

func (m *MemStore) UpdateChapterContent(_ context.Context, id, chapterID, content string, expected *time.Time) error {
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return store.ErrNotFound
	}
	ch := b.ChapterByID(chapterID)
	if ch == nil {
		return store.ErrNotFound
	}
	if expected != nil && !b.LastModified.Equal(expected.UTC().Truncate(time.Millisecond)) {
		return store.ErrConflict
	}
	updated := copyBook(b)
	updated.ChapterByID(chapterID).Content = content
	updated.LastModified = bump(b.LastModified)
	m.books[id] = updated
	return nil
}

func (m *MemStore) DeleteBook(_ context.Context, id string) (string, error) {
	if m.FailWrites != nil {
		return "", m.FailWrites
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return "", store.ErrNotFound
	}
	delete(m.books, id)
	return b.CoverS3Key, nil
}

func (m *MemStore) CreateUser(_ context.Context, user *models.User) (primitive.ObjectID, error) {
	if m.FailWrites != nil {
		return primitive.NilObjectID, m.FailWrites
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := user.ID
	if id.IsZero() {
		id = primitive.NewObjectID()
	}
	u := *user
	u.ID = id
	m.users[id] = u
	return id, nil
}

func (m *MemStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := u
	return &cp, nil
}

// copyBook deep-copies the chapters slice so callers cannot alias stored state.
func copyBook(b models.Book) models.Book {
	chapters := make([]models.Chapter, len(b.Chapters))
	copy(chapters, b.Chapters)
	b.Chapters = chapters
	return b
}

// bump keeps lastModified strictly increasing even at millisecond clock
// resolution, so revision tokens are usable in fast tests.
func bump(prev time.Time) time.Time {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}
