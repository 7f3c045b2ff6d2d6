// Package module wires uploads into the API using modkit
package module

import (
	"context"
	"net/http"

	"popreel/internal/adapters/media"
	"popreel/internal/adapters/media/cloudinary"
	"popreel/internal/adapters/media/s3"
	modkit "popreel/internal/modkit"
	"popreel/internal/modkit/httpkit"
	"popreel/internal/platform/config"
	str "popreel/internal/platform/strings"
	profiledom "popreel/internal/services/profiles/domain"
	uploadshttp "popreel/internal/services/uploads/http"
	uploadsrepo "popreel/internal/services/uploads/repo"
	uploadssvc "popreel/internal/services/uploads/service"
)

// Needs are the ports uploads takes from other modules
type Needs struct {
	Stats profiledom.StatsCache
}

// OriginFromConfig picks the media driver named by MEDIA_DRIVER
// the s3 driver creates its bucket here unless MEDIA_S3_ENSURE_BUCKET is off
func OriginFromConfig(ctx context.Context, cfg config.Conf) (media.Origin, error) {
	mc := cfg.Prefix("MEDIA_")
	switch mc.MayEnum("DRIVER", "cloudinary", "cloudinary", "s3") {
	case "s3":
		sc := s3.FromConfig(cfg)
		st, err := s3.New(sc)
		if err != nil {
			return nil, err
		}
		if sc.Ensure {
			if err := st.EnsureBucket(ctx); err != nil {
				return nil, err
			}
		}
		return st, nil
	default:
		return cloudinary.New(cloudinary.FromConfig(cfg)), nil
	}
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	ports    Ports
	register func(httpkit.Router)

	svc uploadssvc.Service
}

// New constructs the uploads module; it shares /videos with feed, engagement and comments
func New(deps modkit.Deps, origin media.Origin, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("uploads"), modkit.WithPrefix("/videos")}, opts...)...)

	needs, _ := modkit.InjectedAs[Needs](b)
	svc := uploadssvc.New(deps.MustDocs("uploads"), uploadsrepo.New(), origin, deps.Clock, uploadssvc.WithStatsCache(needs.Stats))

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    svc,
		ports:  Ports{Uploads: svc},
	}
	m.register = func(r httpkit.Router) { uploadshttp.Register(r, m.svc, deps.Auth) }
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, m.register)
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }
