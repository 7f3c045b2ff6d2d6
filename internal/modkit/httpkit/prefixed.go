package httpkit

import (
	"net/http"
	"strings"
)

// prefixed registers every route under a fixed path prefix on the parent router
// several modules can share one prefix this way, which chi's Route forbids
type prefixed struct {
	r      Router
	prefix string
}

// Prefixed returns a Router whose paths are joined onto prefix
func Prefixed(r Router, prefix string) Router {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		return r
	}
	if p, ok := r.(prefixed); ok {
		return prefixed{r: p.r, prefix: p.prefix + prefix}
	}
	return prefixed{r: r, prefix: prefix}
}

func (p prefixed) path(s string) string {
	if s == "" || s == "/" {
		return p.prefix
	}
	return p.prefix + "/" + strings.TrimLeft(s, "/")
}

func (p prefixed) Get(s string, h Handler)    { p.r.Get(p.path(s), h) }
func (p prefixed) Post(s string, h Handler)   { p.r.Post(p.path(s), h) }
func (p prefixed) Put(s string, h Handler)    { p.r.Put(p.path(s), h) }
func (p prefixed) Patch(s string, h Handler)  { p.r.Patch(p.path(s), h) }
func (p prefixed) Delete(s string, h Handler) { p.r.Delete(p.path(s), h) }

func (p prefixed) Handle(s string, h http.Handler)           { p.r.Handle(p.path(s), h) }
func (p prefixed) Use(mw ...func(http.Handler) http.Handler) { p.r.Use(mw...) }

func (p prefixed) With(mw ...func(http.Handler) http.Handler) Router {
	return prefixed{r: p.r.With(mw...), prefix: p.prefix}
}

func (p prefixed) Group(fn func(Router)) {
	p.r.Group(func(sub Router) { fn(prefixed{r: sub, prefix: p.prefix}) })
}

func (p prefixed) Route(pattern string, fn func(Router)) {
	p.r.Route(p.path(pattern), fn)
}

func (p prefixed) Mux() http.Handler { return p.r.Mux() }
