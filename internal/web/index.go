package web

import (
	"net/http"
	"path/filepath"

	"hostpanel/internal/auth"
	"hostpanel/internal/conf"
	"hostpanel/internal/netx"
)

// StartIndex registers the dashboard page with the given mux
func StartIndex(mux *http.ServeMux) {
	mux.HandleFunc("/", auth.RequireAuth(handleIndex))
}

// handleIndex serves the main dashboard page
func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		netx.WriteMethodNotAllowed(w)
		return
	}
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filepath.Join(conf.GetWeb().RootPath, "index.html"))
}
