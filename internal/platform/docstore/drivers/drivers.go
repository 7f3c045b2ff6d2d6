// Package drivers picks and opens the document store a process runs against
package drivers

import (
	"time"

	"popreel/internal/platform/config"
	"popreel/internal/platform/docstore"
	"popreel/internal/platform/docstore/memdoc"
	"popreel/internal/platform/docstore/pgdoc"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/logger"
	"popreel/internal/platform/store"
)

const (
	Memory   = "memory"
	Postgres = "postgres"
)

// Config selects a driver
type Config struct {
	// Driver is memory or postgres; empty picks postgres when a pool is open
	Driver       string
	PollInterval time.Duration
}

// ConfigFrom reads DOCSTORE_DRIVER and DOCSTORE_POLL_INTERVAL under root
func ConfigFrom(root config.Conf) Config {
	c := root.Prefix("DOCSTORE_")
	return Config{
		Driver:       c.MayEnum("DRIVER", "", Memory, Postgres),
		PollInterval: c.MayDuration("POLL_INTERVAL", 2*time.Second),
	}
}

// Open builds the configured client over st
// redis, when open, carries change nudges between api processes
func Open(cfg Config, st *store.Store, ix []docstore.Index) (docstore.Client, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = Memory
		if st != nil && st.PG != nil {
			driver = Postgres
		}
	}
	log := logger.Named("docstore")

	switch driver {
	case Memory:
		log.Warn().Msg("using in-memory document store; data is lost on exit")
		return memdoc.New(memdoc.WithIndexes(ix...)), nil
	case Postgres:
		if st == nil || st.PG == nil {
			return nil, perr.FailedPreconditionf("docstore: postgres driver needs SERVICE_PGSQL_DBURL")
		}
		opt := pgdoc.Options{PollInterval: cfg.PollInterval, Indexes: ix, Log: log}
		if st.RDS != nil {
			opt.Notifier = st.RDS
		}
		log.Info().Dur("poll", cfg.PollInterval).Bool("nudges", opt.Notifier != nil).Msg("postgres document store")
		return pgdoc.New(st.PG, opt), nil
	}
	// ConfigFrom only yields known drivers; a hand built Config can still miss
	return nil, perr.Internalf("docstore: unknown driver %q", driver)
}
