// Package swaggerkit serves Swagger UI over an OpenAPI document built from the live route table
package swaggerkit

import (
	"encoding/json"
	"net/http"
	"sync"

	phttp "popreel/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options configure the served document
type Options struct {
	Enabled bool
	Title   string
	Version string
	// Base is the api prefix; only routes under it are documented
	Base string
	// Secured reports whether a route's middleware chain requires a bearer token
	Secured func(chain []func(http.Handler) http.Handler) bool
}

// Mount the Swagger UI and JSON spec if enabled
// the document is built on first request so routes mounted after Mount are included
func Mount(r phttp.Router, opt Options) {
	if !opt.Enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", serveDocJSON(r, opt))
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("api"),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}

func serveDocJSON(r phttp.Router, opt Options) http.HandlerFunc {
	var (
		once sync.Once
		raw  []byte
	)
	return func(w http.ResponseWriter, _ *http.Request) {
		once.Do(func() {
			spec := skeleton(opt)
			if routes, ok := r.Mux().(chi.Routes); ok {
				if err := addRoutes(spec, routes, opt); err != nil {
					spec = skeleton(opt)
				}
			}
			raw, _ = json.Marshal(spec)
		})
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(raw)
	}
}
