package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/demogen/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demogen/internal/logger"
	"github.com/MrSnakeDoc/demogen/internal/store"
)

var panelTmpl = template.Must(template.New("panel").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="margin:0;height:100vh;display:flex;align-items:center;justify-content:center;font-family:system-ui,sans-serif;background:#f6f6f6;color:#222">
<div style="max-width:520px;padding:32px;background:#fff;border-radius:8px;box-shadow:0 1px 4px rgba(0,0,0,.1);text-align:center">
<h1 style="font-size:20px">{{.Title}}</h1>
<p>{{.Message}}</p>
{{if .URL}}<p><a href="{{.URL}}" target="_blank" rel="noopener">{{.URL}}</a></p>{{end}}
</div>
</body>
</html>`))

type panel struct {
	Title   string
	Message string
	URL     string
}

func writeHTML(w http.ResponseWriter, status int, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(page))
}

func writePanel(w http.ResponseWriter, status int, p panel) {
	var buf bytes.Buffer
	if err := panelTmpl.Execute(&buf, p); err != nil {
		http.Error(w, p.Title, status)
		return
	}
	writeHTML(w, status, buf.String())
}

// RenderDemo serves the final demo page. The partner page is cloned again on
// every request so the demo follows the live site.
func RenderDemo(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		res, demo, err := d.Demos.Render(r.Context(), id)
		switch {
		case err == nil:
			if res.Warning != "" {
				w.Header().Set(WarningHeader, res.Warning)
			}
			writeHTML(w, http.StatusOK, res.HTML)

		case errors.Is(err, store.ErrNotFound):
			writePanel(w, http.StatusNotFound, panel{
				Title:   "Demo not found",
				Message: "This demo does not exist or has been deleted.",
			})

		default:
			status, _ := classify(err)
			if status < http.StatusInternalServerError {
				status = http.StatusBadGateway
			}
			p := panel{
				Title:   "Could not generate preview",
				Message: "The partner website could not be loaded right now. Please try again in a few minutes.",
			}
			if demo != nil {
				p.URL = demo.WebsiteURL
			}
			d.Logger.Warn("demo render failed", logger.String("id", id), logger.Error(err))
			writePanel(w, status, p)
		}
	}
}
