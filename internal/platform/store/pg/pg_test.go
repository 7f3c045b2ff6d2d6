package pg

import (
	"context"
	"errors"
	"testing"

	"popreel/internal/platform/testkit"

	"github.com/jackc/pgx/v5/pgxpool"
)

const testDSN = "postgres://u:p@h:5432/popreel?sslmode=disable"

func TestOpen_ParseError(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{URL: "://bad"}, nil, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestOpen_NewPoolError(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &newPool, func(context.Context, *pgxpool.Config) (*pgxpool.Pool, error) {
		return nil, errors.New("boom")
	})

	if _, err := Open(context.Background(), Config{URL: testDSN}, nil, nil); err == nil {
		t.Fatalf("expected newPool error")
	}
}

func TestOpen_AppliesConfigAndDefaults(t *testing.T) {
	testkit.Serial(t)

	var seen *pgxpool.Config
	testkit.Swap(t, &newPool, func(_ context.Context, pc *pgxpool.Config) (*pgxpool.Pool, error) {
		seen = pc
		return &pgxpool.Pool{}, nil
	})

	p, err := Open(context.Background(), Config{URL: testDSN, MaxConns: 7, SlowMs: 123}, nil, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if p.SlowMs != 123 {
		t.Fatalf("SlowMs = %d", p.SlowMs)
	}
	if seen.MaxConns != 7 {
		t.Fatalf("MaxConns = %d", seen.MaxConns)
	}
	if got := seen.ConnConfig.RuntimeParams["application_name"]; got != "popreel" {
		t.Fatalf("application_name = %q", got)
	}
}

func TestOpen_MutatorWins(t *testing.T) {
	testkit.Serial(t)

	var seen *pgxpool.Config
	testkit.Swap(t, &newPool, func(_ context.Context, pc *pgxpool.Config) (*pgxpool.Pool, error) {
		seen = pc
		return &pgxpool.Pool{}, nil
	})

	_, err := Open(context.Background(), Config{URL: testDSN}, nil, func(pc *pgxpool.Config) {
		pc.ConnConfig.RuntimeParams["application_name"] = "reconciler"
		pc.MinConns = 1
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if seen.ConnConfig.RuntimeParams["application_name"] != "reconciler" || seen.MinConns != 1 {
		t.Fatalf("mutator not applied: %+v", seen.ConnConfig.RuntimeParams)
	}
}

func TestClose_NilSafe(t *testing.T) {
	t.Parallel()

	var p *PG
	p.Close()

	p = &PG{}
	p.Close()
	p.Close()
}
