package swaggerkit

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Build walks routes into an OpenAPI 3.0 document
func Build(routes chi.Routes, opt Options) (map[string]any, error) {
	spec := skeleton(opt)
	if err := addRoutes(spec, routes, opt); err != nil {
		return nil, err
	}
	return spec, nil
}

func skeleton(opt Options) map[string]any {
	title := opt.Title
	if title == "" {
		title = "API"
	}
	version := opt.Version
	if version == "" {
		version = "0.0.0"
	}
	spec := map[string]any{
		"info":  map[string]any{"title": title, "version": version},
		"paths": map[string]any{},
	}
	ensureServers(spec, opt.Base)
	ensureErrorResponseDefinition(spec)
	return spec
}

func addRoutes(spec map[string]any, routes chi.Routes, opt Options) error {
	paths := spec["paths"].(map[string]any)
	base := strings.TrimSuffix(opt.Base, "/")

	err := chi.Walk(routes, func(method, route string, _ http.Handler, mws ...func(http.Handler) http.Handler) error {
		if base != "" && !strings.HasPrefix(route, base+"/") {
			return nil
		}
		p := cleanPath(strings.TrimPrefix(route, base))
		node, ok := paths[p].(map[string]any)
		if !ok {
			node = map[string]any{}
			paths[p] = node
		}
		op := map[string]any{
			"operationId": operationID(method, p),
			"responses": map[string]any{
				"200": map[string]any{
					"description": "OK",
					"content": map[string]any{
						"application/json": map[string]any{
							"schema": map[string]any{"$ref": "#/components/schemas/Envelope"},
						},
					},
				},
			},
		}
		if tag := firstSegment(p); tag != "" {
			op["tags"] = []any{tag}
		}
		if params := pathParams(p); len(params) > 0 {
			op["parameters"] = params
		}
		if opt.Secured != nil && opt.Secured(mws) {
			op["security"] = []any{map[string]any{"bearerAuth": []any{}}}
			op["responses"].(map[string]any)["401"] = errorResponse("Unauthorized", 401, 5, "missing bearer token")
		}
		node[strings.ToLower(method)] = op
		return nil
	})
	if err != nil {
		return err
	}
	addDefaultError(spec)
	addDefaultBadRequest(spec)
	return nil
}

// cleanPath strips chi regexp constraints and the trailing slash of index routes
func cleanPath(p string) string {
	var b strings.Builder
	depth := 0
	skipping := false
	for _, r := range p {
		if skipping {
			switch r {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					skipping = false
					b.WriteRune(r)
				}
			}
			continue
		}
		switch {
		case r == '{':
			depth++
			b.WriteRune(r)
		case r == '}':
			depth--
			b.WriteRune(r)
		case r == ':' && depth > 0:
			skipping = true
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 1 {
		out = strings.TrimSuffix(out, "/")
	}
	if out == "" {
		out = "/"
	}
	return out
}

func firstSegment(p string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(p, "/"), "/")
	if strings.HasPrefix(seg, "{") {
		return ""
	}
	return seg
}

func pathParams(p string) []any {
	var out []any
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			out = append(out, map[string]any{
				"name":     strings.Trim(seg, "{}"),
				"in":       "path",
				"required": true,
				"schema":   map[string]any{"type": "string"},
			})
		}
	}
	return out
}

func operationID(method, p string) string {
	var parts []string
	for _, seg := range strings.Split(p, "/") {
		seg = strings.Trim(seg, "{}")
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.ToLower(method) + "_" + strings.Join(parts, "_")
}

// ensureServers pins the document to OAS 3.0.3 with the api base as its server
// swagger http ui can't render 3.1
func ensureServers(spec map[string]any, url string) {
	spec["openapi"] = "3.0.3"
	if url == "" {
		url = "/"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{
			map[string]any{"url": url},
		}
	}
}

// ensureErrorResponseDefinition adds the envelope models and the bearer scheme
// kept minimal so it does not drift from the runtime wire
func ensureErrorResponseDefinition(spec map[string]any) {
	comps, ok := spec["components"].(map[string]any)
	if !ok {
		comps = map[string]any{}
		spec["components"] = comps
	}
	schemas, ok := comps["schemas"].(map[string]any)
	if !ok {
		schemas = map[string]any{}
		comps["schemas"] = schemas
	}
	if _, ok := schemas["ErrorResponse"]; !ok {
		schemas["ErrorResponse"] = map[string]any{
			"type":        "object",
			"description": "Standard error response",
			"properties": map[string]any{
				"status_code": map[string]any{"type": "integer", "format": "int32"},
				"status":      map[string]any{"type": "string"},
				"code":        map[string]any{"type": "integer", "format": "int32"},
				"error":       map[string]any{"type": "string"},
				"field":       map[string]any{"type": "string"},
				"request_id":  map[string]any{"type": "string"},
			},
			"required": []any{"status_code", "status"},
		}
	}
	if _, ok := schemas["Envelope"]; !ok {
		schemas["Envelope"] = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status_code": map[string]any{"type": "integer", "format": "int32"},
				"status":      map[string]any{"type": "string"},
				"request_id":  map[string]any{"type": "string"},
				"data":        map[string]any{},
				"page": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"page_size":   map[string]any{"type": "integer"},
						"count":       map[string]any{"type": "integer"},
						"next_cursor": map[string]any{"type": "string"},
						"exhausted":   map[string]any{"type": "boolean"},
					},
				},
			},
		}
	}
	sec, ok := comps["securitySchemes"].(map[string]any)
	if !ok {
		sec = map[string]any{}
		comps["securitySchemes"] = sec
	}
	if _, ok := sec["bearerAuth"]; !ok {
		sec["bearerAuth"] = map[string]any{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"}
	}
}

func errorResponse(desc string, status, code int, msg string) map[string]any {
	return map[string]any{
		"description": desc,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": map[string]any{
					"status_code": status,
					"status":      http.StatusText(status),
					"code":        code,
					"error":       msg,
					"request_id":  "579f33bf50b1/abc-000001",
				},
			},
		},
	}
}

// eachOp visits every operation's responses in a stable order
func eachOp(spec map[string]any, fn func(responses map[string]any)) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		node, ok := paths[k].(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			responses, ok := op["responses"].(map[string]any)
			if !ok {
				responses = map[string]any{}
				op["responses"] = responses
			}
			fn(responses)
		}
	}
}

// addDefaultError injects a 500 response where absent
func addDefaultError(spec map[string]any) {
	errResp := errorResponse("Internal Server Error", 500, 1, "panic recovered")
	eachOp(spec, func(responses map[string]any) {
		if _, exists := responses["500"]; !exists {
			responses["500"] = errResp
		}
	})
}

// addDefaultBadRequest injects a 400 matching the binder's validation output
func addDefaultBadRequest(spec map[string]any) {
	br := errorResponse("Bad Request", 400, 8, "text is a required field")
	eachOp(spec, func(responses map[string]any) {
		if _, exists := responses["400"]; !exists {
			responses["400"] = br
		}
	})
}
