// Package module holds the module contract and the bootstrap port registry
package module

import (
	phttp "popreel/internal/platform/net/http"
)

// Module mirrors modkit.Module; it lives here so port lookups avoid an import cycle
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}

