package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storyforge/backend/notify"
	"github.com/storyforge/backend/service"
	"github.com/storyforge/backend/store"
)

type UpdateChapterRequest struct {
	Content string `json:"content"`
	// Revision, when set, must match the book's current revision or the
	// save is rejected as stale.
	Revision string `json:"revision,omitempty"`
}

// UpdateChapter saves exactly the targeted chapter's content. Other
// chapters and book fields are untouched apart from lastModified.
func (h *BooksHandler) UpdateChapter(w http.ResponseWriter, r *http.Request) {
	book, ok := h.ownedBook(w, r)
	if !ok {
		return
	}
	chapterID := chi.URLParam(r, "chapterID")
	var req UpdateChapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	var expected *time.Time
	if req.Revision != "" {
		ts, err := time.Parse(time.RFC3339Nano, req.Revision)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid revision")
			return
		}
		expected = &ts
	}

	err := h.Store.UpdateChapterContent(r.Context(), book.ID, chapterID, req.Content, expected)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "chapter not found")
		return
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "book was modified by another session, reload and retry")
		return
	case err != nil:
		h.Logger.Error("chapter save failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, please try again")
		return
	}

	h.Notify.BookChanged(notify.Event{BookID: book.ID, UserID: book.UserID.Hex(), Kind: notify.KindChapter})

	updated, err := h.Store.BookByID(r.Context(), book.ID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, please try again")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type RewriteChapterRequest struct {
	Instructions string `json:"instructions"`
}

type RewriteChapterResponse struct {
	RewrittenChapter string `json:"rewrittenChapter"`
}

// RewriteChapter returns an AI rewrite of one chapter. Nothing is persisted;
// the editor decides whether to save the result.
func (h *BooksHandler) RewriteChapter(w http.ResponseWriter, r *http.Request) {
	book, ok := h.ownedBook(w, r)
	if !ok {
		return
	}
	chapter := book.ChapterByID(chi.URLParam(r, "chapterID"))
	if chapter == nil {
		writeError(w, http.StatusNotFound, "chapter not found")
		return
	}
	var req RewriteChapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Instructions) == "" {
		writeFieldErrors(w, map[string]string{"instructions": "instructions are required"})
		return
	}

	rewritten, err := h.Rewriter.RewriteChapter(r.Context(), chapter.Content, req.Instructions)
	if err != nil {
		h.Logger.Error("chapter rewrite failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "rewrite failed, please try again")
		return
	}
	writeJSON(w, http.StatusOK, RewriteChapterResponse{RewrittenChapter: rewritten})
}

// ExportChapter returns one chapter as a downloadable file. Supported
// formats: epub, txt (default).
func (h *BooksHandler) ExportChapter(w http.ResponseWriter, r *http.Request) {
	book, ok := h.ownedBook(w, r)
	if !ok {
		return
	}
	chapter := book.ChapterByID(chi.URLParam(r, "chapterID"))
	if chapter == nil {
		writeError(w, http.StatusNotFound, "chapter not found")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = service.FormatTXT
	}

	data, contentType, filename, err := service.ExportChapter(book, chapter, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported export format")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}
