// Package modkit wires feature modules: shared deps, build options and the module contract
package modkit

import (
	"time"

	"popreel/internal/platform/config"
	"popreel/internal/platform/docstore"
	"popreel/internal/platform/logger"
	"popreel/internal/platform/net/middleware"
	"popreel/internal/platform/store"
	"popreel/internal/platform/store/rds"
	ptime "popreel/internal/platform/time"
)

// Deps holds the process-wide dependencies handed to every module
type Deps struct {
	Log logger.Logger
	Cfg config.Conf

	// Docs is the document store every service reads and writes
	Docs docstore.Client
	// CH is the analytics sink, nil when clickhouse is not configured
	CH store.Clickhouse
	// Cache is redis, nil when not configured
	Cache *rds.Client
	Clock ptime.Clock
	// Auth resolves bearer tokens for protected routes
	Auth middleware.AuthPort
}

// MustDocs returns the document store or panics naming the module that needed it
func (d Deps) MustDocs(module string) docstore.Client {
	if d.Docs == nil {
		panic(module + ": document store is required")
	}
	return d.Docs
}

// Now reads the injected clock, falling back to the wall clock
func (d Deps) Now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock()
}
