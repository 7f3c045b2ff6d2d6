package httpkit

import (
	"net/http"

	perrs "popreel/internal/platform/errors"
	pnet "popreel/internal/platform/net"
)

// TokenFunc verifies a bearer token and returns the principal it names
type TokenFunc func(token string) (pnet.Principal, error)

// Port implements middleware.AuthPort by reading Authorization and delegating to a TokenFunc
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from a simple parser function
func NewPortFunc(fn TokenFunc) *Port {
	return &Port{parse: fn}
}

// Parse resolves the principal behind the Authorization Bearer token
// returns unauthorized when the header is missing, malformed, or the parser returns an error
func (p *Port) Parse(r *http.Request) (pnet.Principal, error) {
	raw, err := bearer(r.Header.Get("Authorization"))
	if err != nil {
		return pnet.Principal{}, err
	}
	if p == nil || p.parse == nil {
		return pnet.Principal{}, perrs.Unauthorizedf("invalid bearer token")
	}
	who, err := p.parse(raw)
	if err != nil || who.UID == "" {
		return pnet.Principal{}, perrs.Unauthorizedf("invalid bearer token")
	}
	return who, nil
}
