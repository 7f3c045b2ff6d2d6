//go:build integration_pg

package migrate

import (
	"io"
	"testing"

	"popreel/internal/platform/testkit/pgtest"

	"github.com/rs/zerolog"
)

func TestRun_UpDownUp_Integration(t *testing.T) {
	dsn := pgtest.Start(t)
	log := zerolog.New(io.Discard)

	if err := Run(dsn, Up, log); err != nil {
		t.Fatalf("up: %v", err)
	}
	v, dirty, err := Version(dsn)
	if err != nil || dirty || v != 2 {
		t.Fatalf("version = %d dirty=%v err=%v", v, dirty, err)
	}

	// second run is a no-op
	if err := Run(dsn, Up, log); err != nil {
		t.Fatalf("up again: %v", err)
	}

	if err := Run(dsn, Down, log); err != nil {
		t.Fatalf("down: %v", err)
	}
	if v, _, _ := Version(dsn); v != 0 {
		t.Fatalf("version after down = %d", v)
	}
	if err := Run(dsn, Up, log); err != nil {
		t.Fatalf("up after down: %v", err)
	}
}
