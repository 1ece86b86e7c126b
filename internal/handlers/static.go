package handlers

import (
	"net/http"
	"strings"
)

// HandleStatic serves the web UI and stored assets. Asset keys are content
// hashes so they are safe to serve straight from the data directory.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/static/")

	if key, ok := strings.CutPrefix(path, "assets/"); ok {
		if strings.Contains(key, "/") || strings.Contains(key, "..") {
			http.Error(w, "Invalid asset path", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, h.assets.Path(key))
		return
	}

	if path == "" || path == "/" {
		path = "index.html"
	}

	// Prevent directory traversal attacks
	if strings.Contains(path, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".html"):
		w.Header().Set("Content-Type", "text/html")
	}

	http.ServeFile(w, r, "static/"+path)
}
