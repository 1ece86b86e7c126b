package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pixelecho/echoframe/internal/session"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "POST":
		id, ctrl := h.registry.Create()
		h.writeState(w, id, ctrl.State())
	case "GET":
		h.writeJSON(w, map[string]int{"sessions": h.registry.Len()})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail routes /api/sessions/{id} and its sub-resources.
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	sessionID, sub, _ := strings.Cut(rest, "/")

	ctrl, ok := h.sessionOrError(w, sessionID)
	if !ok {
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case "GET":
			h.writeState(w, sessionID, ctrl.State())
		case "DELETE":
			h.registry.Delete(sessionID)
			h.writeJSON(w, map[string]string{"status": "deleted"})
		default:
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "credential":
		h.handleCredential(w, r, sessionID, ctrl)
	case "image":
		h.handleImage(w, r, sessionID, ctrl)
	case "generate":
		h.handleGenerate(w, r, sessionID, ctrl)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) handleCredential(w http.ResponseWriter, r *http.Request, sessionID string, ctrl *session.Controller) {
	switch r.Method {
	case "POST":
		var request struct {
			APIKey string `json:"api_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		// The key itself is deliberately never logged.
		h.writeState(w, sessionID, ctrl.SubmitCredential(r.Context(), request.APIKey))
	case "DELETE":
		h.writeState(w, sessionID, ctrl.ChangeCredential())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
