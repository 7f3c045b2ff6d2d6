// Package identity verifies the bearer tokens the identity provider issues
// tokens are HS256 JWTs whose subject is the user id; name, email and picture ride along as claims
package identity

import (
	"time"

	"popreel/internal/platform/config"
	perr "popreel/internal/platform/errors"
	pnet "popreel/internal/platform/net"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config for the verifier
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
	Leeway   time.Duration
}

// FromConfig reads AUTH_*
func FromConfig(cfg config.Conf) Config {
	c := cfg.Prefix("AUTH_")
	return Config{
		Secret:   c.MustString("JWT_SECRET"),
		Issuer:   c.MayString("JWT_ISSUER", "popreel"),
		Audience: c.MayString("JWT_AUDIENCE", ""),
		TTL:      c.MayDuration("JWT_TTL", time.Hour),
		Leeway:   c.MayDuration("JWT_LEEWAY", 30*time.Second),
	}
}

type claims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Manager verifies tokens and, for local development, issues them
type Manager struct {
	secret []byte
	cfg    Config
	now    func() time.Time
}

// New builds a Manager; an empty secret is a programmer error
func New(cfg Config) *Manager {
	if cfg.Secret == "" {
		panic("identity: empty jwt secret")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &Manager{secret: []byte(cfg.Secret), cfg: cfg, now: time.Now}
}

// Verify validates signature, expiry, issuer and audience and returns the principal
func (m *Manager) Verify(raw string) (pnet.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(m.cfg.Leeway),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.cfg.Issuer))
	}
	if m.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(m.cfg.Audience))
	}

	var out claims
	tkn, err := jwt.ParseWithClaims(raw, &out, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return pnet.Principal{}, perr.Wrap(err, perr.ErrorCodeUnauthorized, "invalid bearer token")
	}
	if !tkn.Valid || out.Subject == "" {
		return pnet.Principal{}, perr.Unauthorizedf("invalid bearer token")
	}
	return pnet.Principal{UID: out.Subject, Name: out.Name, Email: out.Email, Photo: out.Picture}, nil
}

// Issue signs a token for p; used by the dev token command and tests
func (m *Manager) Issue(p pnet.Principal) (string, time.Time, error) {
	if p.UID == "" {
		return "", time.Time{}, perr.Validationf("uid", "uid is required")
	}
	now := m.now().UTC()
	exp := now.Add(m.cfg.TTL)
	cl := claims{
		Name:    p.Name,
		Email:   p.Email,
		Picture: p.Photo,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   p.UID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	if m.cfg.Audience != "" {
		cl.Audience = jwt.ClaimStrings{m.cfg.Audience}
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, perr.Wrap(err, perr.ErrorCodeUnknown, "sign token")
	}
	return s, exp, nil
}
