package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/demogen/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demogen/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/demogen/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	admin := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	admin.Get("/readyz", handlers.Readyz(d))
	admin.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/api/infra", handlers.Infra(d))
}
