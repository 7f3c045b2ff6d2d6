package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"popreel/internal/core/model"
	"popreel/internal/modkit/httpkit"
	"popreel/internal/platform/docstore/memdoc"
	perr "popreel/internal/platform/errors"
	pnet "popreel/internal/platform/net"
	phttp "popreel/internal/platform/net/http"
	"popreel/internal/services/profiles/domain"
	"popreel/internal/services/profiles/repo"
	"popreel/internal/services/profiles/service"

	"github.com/go-chi/chi/v5"
)

func router(t *testing.T) stdhttp.Handler {
	t.Helper()
	db := memdoc.New(memdoc.WithIndexes(repo.Indexes...))
	clock := func() time.Time { return time.UnixMilli(5000) }
	auth := httpkit.NewPortFunc(func(token string) (pnet.Principal, error) {
		if token != "good" {
			return pnet.Principal{}, perr.Unauthorizedf("bad token")
		}
		return pnet.Principal{UID: "u1", Name: "Una", Email: "una@example.com"}, nil
	})
	r := phttp.AdaptChi(chi.NewRouter())
	Register(r, service.New(db, repo.New(), clock), auth)
	return r.Mux()
}

func serve(h stdhttp.Handler, method, path, body string, signedIn bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if signedIn {
		req.Header.Set("Authorization", "Bearer good")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v", rec.Body, err)
	}
	return env.Data
}

func TestVisitorViewOfUnknownUserIsPlaceholder(t *testing.T) {
	h := router(t)
	rec := serve(h, stdhttp.MethodGet, "/u9", "", false)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	v := decode[domain.View](t, rec)
	if v.UID != "u9" || v.Owner || v.Profile == nil || v.Profile.DisplayName != model.DefaultDisplayName {
		t.Fatalf("view = %+v", v)
	}
	if v.Videos == nil || len(v.Videos) != 0 || v.Liked != nil {
		t.Fatalf("sections = %+v / %+v", v.Videos, v.Liked)
	}
}

func TestOwnerViewOfOwnProfile(t *testing.T) {
	h := router(t)
	rec := serve(h, stdhttp.MethodGet, "/u1", "", true)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	if v := decode[domain.View](t, rec); !v.Owner || v.Profile != nil || v.Liked == nil {
		t.Fatalf("owner view = %+v", v)
	}
}

func TestMe(t *testing.T) {
	h := router(t)
	if rec := serve(h, stdhttp.MethodGet, "/me", "", false); rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("anonymous /me = %d", rec.Code)
	}

	rec := serve(h, stdhttp.MethodGet, "/me", "", true)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	me := decode[domain.Me](t, rec)
	if me.Me.UID != "u1" || me.Me.DisplayName != "Una" || me.Me.Email != "una@example.com" || !me.Owner {
		t.Fatalf("me = %+v", me)
	}
}

func TestUpdateMe(t *testing.T) {
	h := router(t)
	_ = serve(h, stdhttp.MethodGet, "/me", "", true)

	if rec := serve(h, stdhttp.MethodPatch, "/me", `{"displayName":"  "}`, true); rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("blank name = %d", rec.Code)
	}
	rec := serve(h, stdhttp.MethodPatch, "/me", `{"displayName":"Ann"}`, true)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	if p := decode[model.Profile](t, rec); p.DisplayName != "Ann" {
		t.Fatalf("profile = %+v", p)
	}
}
