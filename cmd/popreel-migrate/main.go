// Command popreel-migrate applies the document store schema to postgres
package main

import (
	"flag"

	"popreel/internal/platform/config"
	"popreel/internal/platform/logger"
	"popreel/internal/platform/store/migrate"
)

func main() {
	root := config.New()
	l := logger.Get()

	fDir := flag.String("dir", "up", "migration direction: up | down")
	fVersion := flag.Bool("version", false, "print the applied version and exit")
	flag.Parse()

	dsn := root.Prefix("SERVICE_PGSQL_").MustString("DBURL")

	if *fVersion {
		v, dirty, err := migrate.Version(dsn)
		if err != nil {
			l.Fatal().Err(err).Msg("read schema version")
		}
		l.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema version")
		return
	}
	if err := migrate.Run(dsn, migrate.Direction(*fDir), *l); err != nil {
		l.Fatal().Err(err).Msg("migrate failed")
	}
}
