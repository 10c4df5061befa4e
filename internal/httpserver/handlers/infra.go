package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/demogen/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports which collaborators are live and what is lost when one is not.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := d.Components

		placementMode := "heuristic:" + c.Strategy
		if c.AIPlacement {
			placementMode = "ai+" + placementMode
		}

		components := map[string]componentStatus{
			"store": checkStore(r.Context(), d),
			"llm": optional(c.LLMProvider != "none" && c.LLMProvider != "",
				c.LLMProvider, "ai-placement-and-css-inlining-disabled"),
			"placement": {OK: true, Mode: placementMode},
			"clone":     {OK: true, Mode: cloneMode(c)},
			"mail":      optional(c.Mail, "smtp", "install-emails-disabled"),
			"sheets":    optional(c.Sheets, "google-sheets", "status-mirror-disabled"),
			"plugins":   optional(c.PluginBuilds, "github", "plugin-builds-disabled"),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func cloneMode(c deps.Components) string {
	mode := "http"
	if c.BrowserFallback {
		mode += "+browser"
	}
	if c.InlineCSS {
		mode += "+inline-css"
	}
	return mode
}

func optional(enabled bool, mode, impact string) componentStatus {
	if enabled {
		return componentStatus{OK: true, Mode: mode}
	}
	return componentStatus{OK: false, Mode: "disabled", Impact: impact}
}

// determineMode is "critical" without a store, "degraded" when an optional
// collaborator is off and "full" otherwise.
func determineMode(components map[string]componentStatus) string {
	if !components["store"].OK {
		return "critical"
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "full"
}

func checkStore(parent context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Mode: "down", Impact: "demos-unavailable", Error: "store not initialized"}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{OK: false, Mode: "down", Impact: "demos-unavailable", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: "redis"}
}
