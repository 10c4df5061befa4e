package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/demogen/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demogen/internal/httpserver/handlers"
)

func init() { Register(registerPlugins) }

func registerPlugins(r chi.Router, d deps.Deps) {
	r.Post("/api/demos/{id}/plugin", handlers.BuildPlugin(d))
	r.Get("/api/plugins/{partnerID}/{version}", handlers.PluginStatus(d))
}
