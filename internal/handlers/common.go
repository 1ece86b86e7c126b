// Package handlers is the HTTP boundary: it maps routes onto session
// controller actions and renders state snapshots as JSON.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pixelecho/echoframe/internal/assets"
	"github.com/pixelecho/echoframe/internal/history"
	"github.com/pixelecho/echoframe/internal/session"
	"github.com/pixelecho/echoframe/internal/storage"
)

type Handler struct {
	registry    *storage.Registry
	assets      *assets.Store
	history     *history.Log
	softLimitMB int
}

func New(registry *storage.Registry, store *assets.Store, log *history.Log, softLimitMB int) *Handler {
	return &Handler{
		registry:    registry,
		assets:      store,
		history:     log,
		softLimitMB: softLimitMB,
	}
}

// sessionResponse is the envelope every session endpoint returns.
type sessionResponse struct {
	SessionID string        `json:"session_id"`
	State     session.State `json:"state"`
	// Advisory only; the core never rejects on size.
	UploadLimitMB int `json:"upload_limit_mb"`
}

func (h *Handler) writeState(w http.ResponseWriter, sessionID string, state session.State) {
	h.writeJSON(w, sessionResponse{
		SessionID:     sessionID,
		State:         state,
		UploadLimitMB: h.softLimitMB,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

func (h *Handler) sessionOrError(w http.ResponseWriter, sessionID string) (*session.Controller, bool) {
	ctrl, exists := h.registry.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return ctrl, true
}
