package httpkit

import (
	"net/http"

	phttp "popreel/internal/platform/net/http"
	"popreel/internal/platform/net/http/bind"
	"popreel/internal/platform/net/middleware"
)

// Get mounts a body-less handler under GET
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	phttp.GetJSON(r, path, h)
}

// GetQuery mounts a handler that binds T from the query string
func GetQuery[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.GetQuery(r, path, h)
}

// Post mounts a body-less handler under POST
func Post(r Router, path string, h func(*http.Request) (any, error)) {
	phttp.PostNoBody(r, path, h)
}

// PostJSON mounts a JSON body handler under POST
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.PostJSON(r, path, h)
}

// PatchJSON mounts a JSON body handler under PATCH
func PatchJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.PatchJSON(r, path, h)
}

// Delete mounts a body-less handler under DELETE
func Delete(r Router, path string, h func(*http.Request) (any, error)) {
	phttp.DeleteJSON(r, path, h)
}

// Stream mounts a raw handler for long lived responses such as event streams
// the api timeout is lifted for these routes whatever the client sends
func Stream(r Router, path string, h Handler) {
	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		h(w, req.WithContext(middleware.Unbounded(req.Context())))
	})
}

// PostForm mounts a multipart upload handler under POST
func PostForm[T any](r Router, path string, o bind.MultipartOptions, h func(*http.Request, T, bind.File) (any, error)) {
	phttp.PostMultipart(r, path, o, h)
}
