// Package webui hosts the embedded browser chat page and proxies its
// API calls to the agent backend, so the page never deals with CORS.
package webui

import (
	"embed"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

//go:embed static
var static embed.FS

// NewRouter serves the chat page at / and forwards /query and /upload
// to the backend at target.
func NewRouter(target *url.URL) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(target)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Post("/query", proxy.ServeHTTP)
	r.Post("/upload", proxy.ServeHTTP)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		page, err := static.ReadFile("static/index.html")
		if err != nil {
			http.Error(w, "page not found", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	})

	return r
}
