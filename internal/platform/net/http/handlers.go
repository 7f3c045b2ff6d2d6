package http

import (
	"net/http"

	"popreel/internal/platform/net/http/bind"
)

// Result lets a handler pick the status or attach a page instead of the default 200
type Result interface{ response() Response }

func (r Response) response() Response { return r }

func finish(out any, err error) Response {
	if err != nil {
		return Error(err)
	}
	if res, ok := out.(Result); ok {
		return res.response()
	}
	return OK(out)
}

// JSONHandler parses and validates a T body then calls fn
func JSONHandler[T any](fn func(*http.Request, T) (any, error), opts ...bind.JSONOptions) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r, opts...)
		if err != nil {
			return Error(err)
		}
		return finish(fn(r, in))
	})
}

// QueryHandler binds and validates T from the query string then calls fn
func QueryHandler[T any](fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.Query[T](r)
		if err != nil {
			return Error(err)
		}
		return finish(fn(r, in))
	})
}

// NoBodyHandler calls fn without reading the body
func NoBodyHandler(fn func(*http.Request) (any, error)) Handler {
	return Handle(func(r *http.Request) Response { return finish(fn(r)) })
}

// GetJSON mounts fn for GET
func GetJSON(r Router, path string, fn func(*http.Request) (any, error)) {
	r.Get(path, NoBodyHandler(fn))
}

// GetQuery mounts fn for GET with query binding
func GetQuery[T any](r Router, path string, fn func(*http.Request, T) (any, error)) {
	r.Get(path, QueryHandler(fn))
}

// DeleteJSON mounts fn for DELETE
func DeleteJSON(r Router, path string, fn func(*http.Request) (any, error)) {
	r.Delete(path, NoBodyHandler(fn))
}

// PostJSON mounts fn for POST
func PostJSON[T any](r Router, path string, fn func(*http.Request, T) (any, error)) {
	r.Post(path, JSONHandler(fn))
}

// PostNoBody mounts fn for POST when the path carries everything, e.g. toggles
func PostNoBody(r Router, path string, fn func(*http.Request) (any, error)) {
	r.Post(path, NoBodyHandler(fn))
}

// PatchJSON mounts fn for PATCH
func PatchJSON[T any](r Router, path string, fn func(*http.Request, T) (any, error)) {
	r.Patch(path, JSONHandler(fn))
}

// MultipartHandler binds a multipart form then calls fn with T and the uploaded file
// the file is closed once fn returns
func MultipartHandler[T any](o bind.MultipartOptions, fn func(*http.Request, T, bind.File) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, f, err := bind.Multipart[T](r, o)
		if err != nil {
			return Error(err)
		}
		defer f.Close()
		return finish(fn(r, in, f))
	})
}

// PostMultipart mounts fn for POST with multipart binding
func PostMultipart[T any](r Router, path string, o bind.MultipartOptions, fn func(*http.Request, T, bind.File) (any, error)) {
	r.Post(path, MultipartHandler(o, fn))
}
