package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/demogen/internal/clone"
	"github.com/MrSnakeDoc/demogen/internal/demo"
	"github.com/MrSnakeDoc/demogen/internal/install"
	"github.com/MrSnakeDoc/demogen/internal/integration"
	"github.com/MrSnakeDoc/demogen/internal/logger"
	"github.com/MrSnakeDoc/demogen/internal/store"
)

const (
	maxBodyBytes    = 1 << 20
	maxPingBodySize = 4 << 10
)

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// classify maps a service error to its HTTP status and the public payload.
func classify(err error) (int, errorResponse) {
	var buildErr *integration.BuildError
	switch {
	case errors.Is(err, install.ErrMissingPublication), demo.IsValidation(err):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error()}
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	case errors.Is(err, clone.ErrInline):
		return http.StatusBadGateway, errorResponse{Error: err.Error(), Stage: "inline"}
	case errors.Is(err, clone.ErrFetch):
		return http.StatusBadGateway, errorResponse{Error: err.Error(), Stage: "fetch"}
	case errors.Is(err, integration.ErrBuilderOffline):
		return http.StatusServiceUnavailable, errorResponse{Error: err.Error()}
	case errors.As(err, &buildErr):
		return http.StatusBadGateway, errorResponse{Error: buildErr.Message, Stage: buildErr.Step}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error"}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, body := classify(err)
	fields := []logger.Field{
		logger.String("path", r.URL.Path),
		logger.Int("status", status),
		logger.Error(err),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
	} else {
		log.Debug("request rejected", fields...)
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}
