package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pixelecho/echoframe/internal/encoding"
	"github.com/pixelecho/echoframe/internal/session"
)

// hardUploadCap bounds what we read into memory. The advertised size limit is
// advisory guidance only; this cap just keeps a hostile upload from exhausting
// the process.
const hardUploadCap = 10 * 1024 * 1024

func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request, sessionID string, ctrl *session.Controller) {
	switch r.Method {
	case "POST":
		contentType := r.Header.Get("Content-Type")
		if strings.Contains(contentType, "application/json") {
			h.handleDataURIUpload(w, r, sessionID, ctrl)
			return
		}
		h.handleFileUpload(w, r, sessionID, ctrl)
	case "DELETE":
		h.writeState(w, sessionID, ctrl.ReselectImage())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request, sessionID string, ctrl *session.Controller) {
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, hardUploadCap))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(fileData) >= hardUploadCap {
		h.writeError(w, "File too large", http.StatusBadRequest)
		return
	}

	mediaType := header.Header.Get("Content-Type")
	slog.Info("Image uploaded", "session_id", sessionID, "filename", header.Filename, "bytes", len(fileData))
	h.writeState(w, sessionID, ctrl.SelectImage(fileData, mediaType))
}

// handleDataURIUpload accepts {"image": "data:image/png;base64,..."} for
// drag-and-drop clients that never materialize a file.
func (h *Handler) handleDataURIUpload(w http.ResponseWriter, r *http.Request, sessionID string, ctrl *session.Controller) {
	var request struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, hardUploadCap)).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Image == "" {
		h.writeError(w, "image is required", http.StatusBadRequest)
		return
	}

	payload, mediaType, err := encoding.DecodeDataURI(request.Image)
	if err != nil {
		h.writeError(w, "Invalid image data: "+err.Error(), http.StatusBadRequest)
		return
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		h.writeError(w, "Invalid base64 image data", http.StatusBadRequest)
		return
	}

	slog.Info("Image uploaded", "session_id", sessionID, "bytes", len(data), "source", "data_uri")
	h.writeState(w, sessionID, ctrl.SelectImage(data, mediaType))
}
