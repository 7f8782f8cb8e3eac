package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nikbrunner/xbm/internal/httpserver/deps"
	"github.com/nikbrunner/xbm/internal/httpserver/handlers"
)

// APIPrefix is where every JSON endpoint is mounted.
const APIPrefix = "/api"

type Registrar func(r chi.Router, d deps.Deps)

var (
	rootRegistrars []Registrar
	apiRegistrars  []Registrar
)

// Register adds a registrar at the router root.
func Register(reg Registrar) {
	rootRegistrars = append(rootRegistrars, reg)
}

// RegisterAPI adds a registrar whose paths are relative to APIPrefix.
func RegisterAPI(reg Registrar) {
	apiRegistrars = append(apiRegistrars, reg)
}

// RegisterAll mounts every registrar on r. Call it once per router.
// API responses are never cached, and unknown API paths or methods
// answer with the same JSON error body as the handlers.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, reg := range rootRegistrars {
		reg(r, d)
	}

	r.Route(APIPrefix, func(api chi.Router) {
		api.Use(middleware.NoCache)
		api.NotFound(handlers.NotFound)
		api.MethodNotAllowed(handlers.MethodNotAllowed)
		for _, reg := range apiRegistrars {
			reg(api, d)
		}
	})
}
