package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/MrSnakeDoc/demogen/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demogen/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/demogen/internal/httpserver/mw"
)

func init() { Register(registerInstalls) }

// The install ping comes from partner pages on any domain.
func registerInstalls(r chi.Router, d deps.Deps) {
	ping := r.With(
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         24 * 60 * 60,
		}),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.InstallRateBurst,
			RefillPerIPPerMin: d.InstallRatePerMin,
			MaxEntries:        10_000,
			TrustProxy:        d.TrustProxy,
		}),
	)
	ping.Post("/api/installs/confirm", handlers.ConfirmInstall(d))
	ping.Options("/api/installs/confirm", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}
