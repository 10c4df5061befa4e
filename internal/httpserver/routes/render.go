package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/demogen/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demogen/internal/httpserver/handlers"
)

func init() { Register(registerRender) }

func registerRender(r chi.Router, d deps.Deps) {
	r.Get("/demo/{id}", handlers.RenderDemo(d))
	r.Method("GET", "/player.js", d.Player)
}
