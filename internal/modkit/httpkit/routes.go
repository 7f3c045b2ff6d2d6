package httpkit

import "net/http"

// MountUnder registers a module's routes under prefix with its own middlewares
// the routes land on a group of r, so modules may share a prefix such as /videos
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Group(func(g Router) {
		if len(mw) > 0 {
			g.Use(mw...)
		}
		mount(Prefixed(g, prefix))
	})
}
