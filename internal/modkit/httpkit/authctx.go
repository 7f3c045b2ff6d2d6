package httpkit

import (
	"net/http"
	"strings"

	"popreel/internal/core/model"
	perrs "popreel/internal/platform/errors"
	pnet "popreel/internal/platform/net"
)

// Principal returns the signed in principal from the request context
func Principal(r *http.Request) (pnet.Principal, error) {
	p, ok := pnet.PrincipalFrom(r.Context())
	if !ok {
		return pnet.Principal{}, perrs.Unauthorizedf("missing bearer token")
	}
	return p, nil
}

// User returns the authenticated user id from the request context
func User(r *http.Request) (string, error) {
	uid := pnet.UserID(r.Context())
	if uid == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	return uid, nil
}

// Author returns the signed in principal as shown next to what they post
func Author(r *http.Request) (model.Author, error) {
	p, err := Principal(r)
	if err != nil {
		return model.Author{}, err
	}
	if p.UID == "" {
		return model.Author{}, perrs.Unauthorizedf("missing bearer token")
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = model.DefaultDisplayName
	}
	return model.Author{UID: p.UID, Name: name, Avatar: p.Photo}, nil
}

// JWT returns the raw bearer token from the Authorization header
func JWT(r *http.Request) (string, error) {
	return bearer(r.Header.Get("Authorization"))
}

// bearer accepts a case-insensitive Bearer scheme with any spacing before the token
func bearer(authz string) (string, error) {
	s := strings.TrimSpace(authz)
	const prefix = "bearer"
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	rest := s[len(prefix):]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(rest)
	if raw == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	return raw, nil
}
