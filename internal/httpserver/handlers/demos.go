package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/httpserver/deps"
)

// WarningHeader carries the injector warning of a preview.
const WarningHeader = "X-Demogen-Warning"

type generateRequest struct {
	URL string `json:"url"`
}

func GenerateDraft(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
			badRequest(w, err)
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			badRequest(w, errors.New("url is required"))
			return
		}

		draft, err := d.Demos.Generate(r.Context(), req.URL)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, draft)
	}
}

// Preview returns the injected clone as a page, for the operator iframe.
func Preview(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.DemoInput
		if err := decodeJSON(w, r, maxBodyBytes, &in); err != nil {
			badRequest(w, err)
			return
		}

		res, err := d.Demos.Preview(r.Context(), in)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if res.Warning != "" {
			w.Header().Set(WarningHeader, res.Warning)
		}
		writeHTML(w, http.StatusOK, res.HTML)
	}
}

type saveResponse struct {
	Demo    *domain.DemoConfig `json:"demo"`
	Created bool               `json:"created"`
}

func SaveDemo(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.DemoInput
		if err := decodeJSON(w, r, maxBodyBytes, &in); err != nil {
			badRequest(w, err)
			return
		}

		demo, created, err := d.Demos.Save(r.Context(), in)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, saveResponse{Demo: demo, Created: created})
	}
}

func ListDemos(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		demos, err := d.Demos.List(r.Context())
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if demos == nil {
			demos = []*domain.DemoConfig{}
		}
		writeJSON(w, http.StatusOK, demos)
	}
}

// GetDemo returns the raw record. Unlike the rendered page it does not count a view.
func GetDemo(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		demo, err := d.Demos.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, demo)
	}
}

func DeleteDemo(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Demos.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Snippets(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sn, err := d.Demos.Snippets(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, sn)
	}
}
