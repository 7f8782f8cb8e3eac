package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nikbrunner/xbm/internal/httpserver/deps"
	"github.com/nikbrunner/xbm/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerAI) }

func registerAI(r chi.Router, d deps.Deps) {
	r.Post("/ask", handlers.Ask(d))
	r.Route("/ai", func(r chi.Router) {
		r.Get("/", handlers.AIStatus(d))
		r.Put("/key", handlers.SetAIKey(d))
		r.Delete("/key", handlers.ClearAIKey(d))
	})
}
