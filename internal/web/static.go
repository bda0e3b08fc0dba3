package web

import (
	"net/http"
	"path/filepath"

	"hostpanel/internal/conf"
)

// StartPages serves the standalone pages, such as the login form
func StartPages(mux *http.ServeMux) {
	mux.Handle("/pages/", staticDir("/pages", "pages"))
}

// StartAssets serves scripts, styles and images
func StartAssets(mux *http.ServeMux) {
	mux.Handle("/assets/", staticDir("/assets", "assets"))
}

// staticDir resolves the web root on every request so a reloaded config takes effect
func staticDir(prefix, dir string) http.Handler {
	return http.StripPrefix(prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		root := filepath.Join(conf.GetWeb().RootPath, dir)
		http.FileServer(http.Dir(root)).ServeHTTP(w, r)
	}))
}
