package proxy

import (
	"net/http"
	"path/filepath"
)

// assetDirs are the only game content folders the browser client
// is allowed to fetch.
var assetDirs = []string{"gfx", "maps", "models", "overviews", "sound", "sprites"}

// assets serves the client page and the allowlisted game folders
// from the web root; everything else is a 404.
func assets(root string) http.Handler {
	h := http.NewServeMux()
	fs := http.FileServer(http.Dir(root))
	for _, dir := range assetDirs {
		h.Handle("/"+dir+"/", fs)
	}
	h.HandleFunc("/health", health)
	h.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(root, "index.html"))
	})
	return h
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK"))
}

// allowCORS marks every response as cross-origin friendly and
// short-circuits the OPTIONS preflights. The game client page may be
// hosted on another origin than the proxy itself.
func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Max-Age", "86400")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
