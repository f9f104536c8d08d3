package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/storyforge/backend/middleware"
)

// NewRouter wires all handlers into the application router.
func NewRouter(auth *AuthHandler, books *BooksHandler, events *EventsHandler, jwtSecret string, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"welcome to storyforge."}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", auth.Register)
		r.Post("/auth/login", auth.Login)
		// Public so <img src> works without an Authorization header.
		r.Get("/books/{id}/cover", books.Cover)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(jwtSecret))
			r.Get("/me", auth.Me)
			r.Get("/events", events.Stream)
			r.Post("/books/generate", books.Generate)
			r.Post("/books/import", books.Import)
			r.Get("/books", books.List)
			r.Get("/books/{id}", books.Get)
			r.Delete("/books/{id}", books.Delete)
			r.Post("/books/{id}/cover", books.RegenerateCover)
			r.Put("/books/{id}/chapters/{chapterID}", books.UpdateChapter)
			r.Post("/books/{id}/chapters/{chapterID}/rewrite", books.RewriteChapter)
			r.Get("/books/{id}/chapters/{chapterID}/export", books.ExportChapter)
		})
	})

	return r
}
