package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/storyforge/backend/models"
	"github.com/storyforge/backend/notify"
	"github.com/storyforge/backend/service"
	"github.com/storyforge/backend/store/stubs"
)

const (
	testJWTSecret = "test-secret"
	testEmail     = "reader@example.com"
	testPassword  = "correct horse battery staple"
)

type fakeChapterGen struct {
	mu        sync.Mutex
	chapters  []string
	err       error
	gotPrompt string
	gotGenre  string
	gotCount  int
}

func (f *fakeChapterGen) GenerateChapters(_ context.Context, prompt, genre string, count int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotPrompt, f.gotGenre, f.gotCount = prompt, genre, count
	return f.chapters, f.err
}

type fakeRewriter struct {
	out string
	err error
}

func (f *fakeRewriter) RewriteChapter(_ context.Context, _, _ string) (string, error) {
	return f.out, f.err
}

type fakeCoverGen struct {
	mu    sync.Mutex
	calls int
	img   *service.CoverImage
	err   error
}

func (f *fakeCoverGen) GenerateCover(_ context.Context, _ service.CoverRequest) (*service.CoverImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.img, f.err
}

func (f *fakeCoverGen) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testEnv struct {
	store    *stubs.MemStore
	router   chi.Router
	covers   *service.CoverService
	chapters *fakeChapterGen
	rewriter *fakeRewriter
	coverGen *fakeCoverGen
	userID   primitive.ObjectID
	token    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := stubs.NewMemStore()
	logger := zap.NewNop()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	userID, err := mem.CreateUser(context.Background(), &models.User{
		Email:     testEmail,
		Password:  string(hash),
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	chapters := &fakeChapterGen{chapters: []string{"body one", "body two", "body three"}}
	rewriter := &fakeRewriter{out: "rewritten text"}
	coverGen := &fakeCoverGen{img: &service.CoverImage{MIMEType: "image/png", Data: []byte{1, 2, 3}}}

	broker := notify.NewBroker()
	covers := service.NewCoverService(coverGen, mem, nil, broker, logger, time.Second)

	auth := &AuthHandler{Store: mem, JWTSecret: testJWTSecret, Logger: logger}
	books := &BooksHandler{
		Store:    mem,
		Chapters: chapters,
		Rewriter: rewriter,
		Covers:   covers,
		Notify:   broker,
		Logger:   logger,
	}
	events := &EventsHandler{Broker: broker}

	token, err := auth.createToken(userID.Hex(), testEmail)
	require.NoError(t, err)

	return &testEnv{
		store:    mem,
		router:   NewRouter(auth, books, events, testJWTSecret, logger),
		covers:   covers,
		chapters: chapters,
		rewriter: rewriter,
		coverGen: coverGen,
		userID:   userID,
		token:    token,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBook(t *testing.T, rec *httptest.ResponseRecorder) models.Book {
	t.Helper()
	var book models.Book
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&book))
	return book
}

func (e *testEnv) createBook(t *testing.T) models.Book {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/books/generate", GenerateBookRequest{
		Title:       "The Last Stargazer",
		Prompt:      "An astronomer watches the stars go out one by one.",
		Genre:       "Science Fiction",
		NumChapters: 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBook(t, rec)
}
