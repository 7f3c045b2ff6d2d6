package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "popreel/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type pingFn func(context.Context) error

func (f pingFn) Ping(ctx context.Context) error { return f(ctx) }

func ready(t *testing.T, checks ...Dependency) ReadyResponse {
	t.Helper()
	r := phttp.AdaptChi(chi.NewRouter())
	Register(r, Deps{ServiceName: "popreel-api", StartedAt: time.Now(), Checks: checks})
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/ready", nil))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var env struct {
		Data ReadyResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	return env.Data
}

func TestReadyStatus(t *testing.T) {
	ok := pingFn(func(context.Context) error { return nil })
	down := pingFn(func(context.Context) error { return errors.New("refused") })

	cases := []struct {
		name   string
		checks []Dependency
		want   string
	}{
		{"all ok", []Dependency{{Name: "docstore", Pinger: ok, Required: true}, {Name: "redis"}}, "ok"},
		{"optional down", []Dependency{{Name: "docstore", Pinger: ok, Required: true}, {Name: "redis", Pinger: down}}, "degraded"},
		{"required down", []Dependency{{Name: "docstore", Pinger: down, Required: true}, {Name: "redis", Pinger: down}}, "fail"},
	}
	for _, tc := range cases {
		got := ready(t, tc.checks...)
		if got.Status != tc.want || len(got.Checks) != len(tc.checks) {
			t.Fatalf("%s: %+v", tc.name, got)
		}
	}
	if got := ready(t, Dependency{Name: "redis"}); got.Checks[0].Status != "skipped" {
		t.Fatalf("nil pinger: %+v", got.Checks[0])
	}
}

func TestVersionNamesService(t *testing.T) {
	r := phttp.AdaptChi(chi.NewRouter())
	Register(r, Deps{ServiceName: "popreel-api", StartedAt: time.Now()})
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/version", nil))
	var env struct {
		Data struct {
			Service string `json:"service"`
		} `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if rec.Code != stdhttp.StatusOK || env.Data.Service != "popreel-api" {
		t.Fatalf("status %d body %s", rec.Code, rec.Body)
	}
}

func TestServiceListsModulesSorted(t *testing.T) {
	r := phttp.AdaptChi(chi.NewRouter())
	Register(r, Deps{
		ServiceName: "popreel-api",
		StartedAt:   time.Now(),
		Modules:     func() []string { return []string{"likes", "feed", "meta"} },
	})
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/service", nil))
	var env struct {
		Data ServiceResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	got := env.Data.Modules
	if len(got) != 3 || got[0] != "feed" || got[1] != "likes" || got[2] != "meta" {
		t.Fatalf("modules = %v", got)
	}
}
