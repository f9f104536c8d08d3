package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storyforge/backend/assemble"
	"github.com/storyforge/backend/middleware"
	"github.com/storyforge/backend/models"
	"github.com/storyforge/backend/notify"
	"github.com/storyforge/backend/segment"
	"github.com/storyforge/backend/service"
	"github.com/storyforge/backend/store"
)

type BooksHandler struct {
	Store    store.Store
	Chapters service.ChapterGenerator
	Rewriter service.ChapterRewriter
	Covers   *service.CoverService
	S3       *service.S3Service
	Notify   notify.Notifier
	Logger   *zap.Logger
}

type GenerateBookRequest struct {
	Title       string `json:"title"`
	Prompt      string `json:"prompt"`
	Genre       string `json:"genre"`
	Themes      string `json:"themes,omitempty"`
	NumChapters int    `json:"numChapters"`
}

func (req *GenerateBookRequest) validate() map[string]string {
	fields := map[string]string{}
	if n := utf8.RuneCountInString(strings.TrimSpace(req.Title)); n < 5 || n > 100 {
		fields["title"] = "book title must be 5 to 100 characters"
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(req.Prompt)); n < 10 || n > 1000 {
		fields["prompt"] = "prompt must be 10 to 1000 characters"
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(req.Genre)); n < 3 || n > 50 {
		fields["genre"] = "genre must be 3 to 50 characters"
	}
	if utf8.RuneCountInString(req.Themes) > 200 {
		fields["themes"] = "themes must be at most 200 characters"
	}
	if req.NumChapters < 1 || req.NumChapters > 50 {
		fields["numChapters"] = "number of chapters must be between 1 and 50"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Generate creates a book on the AI path: chapters are generated
// synchronously, the book is persisted, and cover generation is dispatched
// in the background before the response returns.
func (h *BooksHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req GenerateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if fields := req.validate(); fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	aiPrompt := req.Prompt
	if themes := strings.TrimSpace(req.Themes); themes != "" {
		aiPrompt = req.Prompt + " Key themes: " + themes + "."
	}
	chapters, err := h.Chapters.GenerateChapters(r.Context(), aiPrompt, req.Genre, req.NumChapters)
	if err != nil {
		h.Logger.Error("chapter generation failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "chapter generation failed, please try again")
		return
	}

	book, err := assemble.FromGenerated(assemble.GeneratedInput{
		UserID:      userID,
		Title:       req.Title,
		Genre:       req.Genre,
		Themes:      req.Themes,
		Prompt:      req.Prompt,
		NumChapters: req.NumChapters,
	}, chapters)
	if errors.Is(err, assemble.ErrNoChapters) {
		writeError(w, http.StatusBadGateway, "chapter generation returned no chapters, please try again")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to assemble book")
		return
	}

	if err := h.Store.CreateBook(r.Context(), book); err != nil {
		h.Logger.Error("create book failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, please try again")
		return
	}
	h.Logger.Info("book generated",
		zap.String("bookId", book.ID), zap.Int("chapters", len(book.Chapters)))

	h.Notify.BookChanged(notify.Event{BookID: book.ID, UserID: userID.Hex(), Kind: notify.KindCreated})
	h.Covers.Dispatch(book, service.CoverRequest{Title: book.Title, Genre: book.Genre})

	writeJSON(w, http.StatusCreated, book)
}

type ImportBookRequest struct {
	Title   string `json:"title"`
	Genre   string `json:"genre"`
	Content string `json:"content"`
}

func (req *ImportBookRequest) validate() map[string]string {
	fields := map[string]string{}
	if n := utf8.RuneCountInString(strings.TrimSpace(req.Title)); n < 5 || n > 100 {
		fields["title"] = "book title must be 5 to 100 characters"
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(req.Genre)); n < 3 || n > 50 {
		fields["genre"] = "genre must be 3 to 50 characters"
	}
	if utf8.RuneCountInString(req.Content) < 20 {
		fields["content"] = "content must be at least 20 characters"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Import creates a book from pasted text, splitting it into chapters by
// heading detection. No cover generation is dispatched; the imported book
// keeps its placeholder until the user requests one.
func (h *BooksHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req ImportBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if fields := req.validate(); fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	parts := segment.Split(req.Content)
	book, err := assemble.FromImport(assemble.ImportInput{
		UserID:  userID,
		Title:   req.Title,
		Genre:   req.Genre,
		Content: req.Content,
	}, parts)
	if errors.Is(err, assemble.ErrNoChapters) {
		writeError(w, http.StatusUnprocessableEntity, "could not extract any chapters from the content")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to assemble book")
		return
	}

	if err := h.Store.CreateBook(r.Context(), book); err != nil {
		h.Logger.Error("create book failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, please try again")
		return
	}
	h.Logger.Info("book imported",
		zap.String("bookId", book.ID), zap.Int("chapters", len(book.Chapters)))

	h.Notify.BookChanged(notify.Event{BookID: book.ID, UserID: userID.Hex(), Kind: notify.KindCreated})
	writeJSON(w, http.StatusCreated, book)
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	books, err := h.Store.BooksByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, please try again")
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, ok := h.ownedBook(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	book, ok := h.ownedBook(w, r)
	if !ok {
		return
	}
	coverKey, err := h.Store.DeleteBook(r.Context(), book.ID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, please try again")
		return
	}
	if h.S3 != nil && coverKey != "" {
		_ = h.S3.Delete(r.Context(), coverKey)
	}
	h.Notify.BookChanged(notify.Event{BookID: book.ID, UserID: book.UserID.Hex(), Kind: notify.KindDeleted})
	w.WriteHeader(http.StatusNoContent)
}

type RegenerateCoverRequest struct {
	Prompt       string `json:"prompt,omitempty"`
	ImageDataURI string `json:"imageDataUri,omitempty"`
}

// RegenerateCover re-runs cover generation with an optional style prompt and
// inspiration image. Like the creation-time dispatch it is asynchronous.
func (h *BooksHandler) RegenerateCover(w http.ResponseWriter, r *http.Request) {
	book, ok := h.ownedBook(w, r)
	if !ok {
		return
	}
	var req RegenerateCoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	h.Covers.Dispatch(book, service.CoverRequest{
		Title:              book.Title,
		Genre:              book.Genre,
		Prompt:             strings.TrimSpace(req.Prompt),
		InspirationDataURI: req.ImageDataURI,
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "cover generation started"})
}

// Cover streams the stored cover object. Registered outside the auth group
// so plain <img src> tags work; books with placeholder or inline covers
// never reference this route.
func (h *BooksHandler) Cover(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	book, err := h.Store.BookByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, please try again")
		return
	}
	if book.CoverS3Key == "" || h.S3 == nil {
		writeError(w, http.StatusNotFound, "no cover")
		return
	}
	body, contentType, err := h.S3.GetObject(r.Context(), book.CoverS3Key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cover")
		return
	}
	defer body.Close()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	io.Copy(w, body)
}

// ownedBook resolves the {id} route param to a book owned by the caller.
// Books owned by someone else are reported as not found.
func (h *BooksHandler) ownedBook(w http.ResponseWriter, r *http.Request) (*models.Book, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	id := chi.URLParam(r, "id")
	book, err := h.Store.BookByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "book not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, please try again")
		return nil, false
	}
	if book.UserID != userID {
		writeError(w, http.StatusNotFound, "book not found")
		return nil, false
	}
	return book, true
}
