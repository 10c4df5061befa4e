package handlers

import (
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/demogen/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demogen/internal/logger"
)

type confirmRequest struct {
	Publication string `json:"publication"`
}

type confirmResponse struct {
	Success          bool `json:"success"`
	AlreadyInstalled bool `json:"alreadyInstalled"`
	Ignored          bool `json:"ignored,omitempty"`
}

// ConfirmInstall receives the one-time ping of a deployed player.
// Pings sent from our own origin come from a demo render and are ignored.
func ConfirmInstall(d deps.Deps) http.HandlerFunc {
	own := origin(d.PublicBaseURL)

	return func(w http.ResponseWriter, r *http.Request) {
		var req confirmRequest
		if err := decodeJSON(w, r, maxPingBodySize, &req); err != nil {
			badRequest(w, err)
			return
		}

		if own != "" && r.Header.Get("Origin") == own {
			d.Logger.Debug("install ping from demo render ignored",
				logger.String("publication", req.Publication))
			writeJSON(w, http.StatusOK, confirmResponse{Ignored: true})
			return
		}

		out, err := d.Installs.Confirm(r.Context(), req.Publication)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, confirmResponse{Success: true, AlreadyInstalled: out.AlreadyInstalled})
	}
}

// origin reduces a base URL to scheme://host, the form browsers send in the
// Origin header.
func origin(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
