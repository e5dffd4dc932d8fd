//go:build !embed_static

package api

import (
	"net/http"
	"os"
	"path/filepath"
)

// StaticHandler serves the map frontend from ./static in dev, if present.
func (s *Server) StaticHandler(w http.ResponseWriter, r *http.Request) {
	base := "static"
	name := filepath.Base(r.URL.Path)
	switch name {
	case "map.js", "map.css":
		p := filepath.Join(base, name)
		if _, err := os.Stat(p); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, p)
	default:
		if r.URL.Path == "/" || r.URL.Path == "/mapa" || r.URL.Path == "/mapa/" {
			p := filepath.Join(base, "map.html")
			if _, err := os.Stat(p); err != nil {
				http.NotFound(w, r)
				return
			}
			http.ServeFile(w, r, p)
			return
		}
		http.NotFound(w, r)
	}
}
