package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demogen/internal/integration"
)

type buildRequest struct {
	Version           string                   `json:"version"`
	InjectionContext  domain.InjectionContext  `json:"injectionContext,omitempty"`
	InjectionStrategy domain.InjectionStrategy `json:"injectionStrategy,omitempty"`
	ExcludeSlugs      []string                 `json:"excludeSlugs,omitempty"`
}

// BuildPlugin submits the WordPress plugin build of a demo.
func BuildPlugin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req buildRequest
		if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
			badRequest(w, err)
			return
		}

		build, err := d.Demos.BuildPlugin(r.Context(), chi.URLParam(r, "id"), req.Version, integration.PluginOptions{
			Context:      req.InjectionContext,
			Strategy:     req.InjectionStrategy,
			ExcludeSlugs: req.ExcludeSlugs,
		})
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusAccepted, build)
	}
}

func PluginStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := d.Demos.PluginStatus(r.Context(), chi.URLParam(r, "partnerID"), chi.URLParam(r, "version"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
