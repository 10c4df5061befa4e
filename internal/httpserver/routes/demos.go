package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/demogen/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demogen/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/demogen/internal/httpserver/mw"
)

func init() { Register(registerDemos) }

func registerDemos(r chi.Router, d deps.Deps) {
	r.Post("/api/demos/generate", handlers.GenerateDraft(d))
	r.Post("/api/demos/preview", handlers.Preview(d))
	r.Post("/api/demos", handlers.SaveDemo(d))
	r.Get("/api/demos", handlers.ListDemos(d))
	r.Get("/api/demos/{id}", handlers.GetDemo(d))
	r.Get("/api/demos/{id}/snippets", handlers.Snippets(d))

	r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	).Delete("/api/demos/{id}", handlers.DeleteDemo(d))
}
