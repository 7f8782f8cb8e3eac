package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nikbrunner/xbm/internal/httpserver/deps"
	"github.com/nikbrunner/xbm/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Get("/bookmarks", handlers.ListBookmarks(d))
	r.Post("/bookmarks", handlers.UploadBookmarks(d))
	r.Delete("/bookmarks", handlers.ClearBookmarks(d))
	r.Get("/usernames", handlers.Usernames(d))
}
