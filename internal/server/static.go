package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// spaHandler serves files from dir and falls back to index.html for
// client-side routes.
type spaHandler struct {
	dir   string
	index string
	files http.Handler
}

func newSPAHandler(dir string) (http.Handler, bool) {
	if dir == "" {
		return nil, false
	}
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return nil, false
	}
	return &spaHandler{dir: dir, index: index, files: http.FileServer(http.Dir(dir))}, true
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := path.Clean("/" + r.URL.Path)
	info, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(p)))
	if err != nil || info.IsDir() {
		http.ServeFile(w, r, h.index)
		return
	}
	h.files.ServeHTTP(w, r)
}
