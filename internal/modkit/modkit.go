package modkit

import (
	phttp "popreel/internal/platform/net/http"
)

// Module is what api.Mount needs from a feature module
type Module interface {
	// MountRoutes mounts the module's endpoints under its prefix
	MountRoutes(r phttp.Router)
	// Ports returns the module's port set for cross wiring
	Ports() any
	Name() string
}

// Builder constructs a Module from shared deps and options
type Builder func(Deps, ...Option) Module
