package httpserver

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"flockd/internal/config"
)

// AvatarRoutes returns a sub-router mounted at /uploads that serves cropped
// profile photos written by the imaging package.
func AvatarRoutes(cfg *config.Config) chi.Router {
	r := chi.NewRouter()

	r.Get("/{filename}", func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		if filename == "" {
			http.Error(w, "missing filename", http.StatusBadRequest)
			return
		}
		// Prevent path traversal by rejecting anything with separators.
		if filepath.Base(filename) != filename {
			http.Error(w, "invalid filename", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, filepath.Join(cfg.UploadDir, filename))
	})

	return r
}
