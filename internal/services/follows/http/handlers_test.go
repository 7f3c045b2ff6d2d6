package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"popreel/internal/core/model"
	"popreel/internal/modkit/httpkit"
	"popreel/internal/platform/docstore"
	"popreel/internal/platform/docstore/memdoc"
	perr "popreel/internal/platform/errors"
	pnet "popreel/internal/platform/net"
	phttp "popreel/internal/platform/net/http"
	"popreel/internal/services/follows/domain"
	"popreel/internal/services/follows/repo"
	"popreel/internal/services/follows/service"

	"github.com/go-chi/chi/v5"
)

func router(t *testing.T) stdhttp.Handler {
	t.Helper()
	db := memdoc.New()
	for _, uid := range []string{"u1", "u2"} {
		if err := db.Set(context.Background(), docstore.Ref{Collection: model.Users, ID: uid}, docstore.Fields{"uid": uid, "displayName": uid}); err != nil {
			t.Fatal(err)
		}
	}
	auth := httpkit.NewPortFunc(func(token string) (pnet.Principal, error) {
		if token != "good" {
			return pnet.Principal{}, perr.Unauthorizedf("bad token")
		}
		return pnet.Principal{UID: "u1", Name: "Una"}, nil
	})
	r := phttp.AdaptChi(chi.NewRouter())
	Register(r, service.New(db, repo.New(), nil, nil, nil), auth)
	return r.Mux()
}

func serve(h stdhttp.Handler, method, path string, signedIn bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
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

func TestToggleFollowAndLists(t *testing.T) {
	h := router(t)

	if rec := serve(h, stdhttp.MethodPost, "/u2/follow", false); rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("anonymous follow = %d", rec.Code)
	}

	rec := serve(h, stdhttp.MethodPost, "/u2/follow", true)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("follow = %d body %s", rec.Code, rec.Body)
	}
	if st := decode[domain.FollowState](t, rec); st.UID != "u2" || !st.Following {
		t.Fatalf("state = %+v", st)
	}

	if st := decode[domain.FollowState](t, serve(h, stdhttp.MethodGet, "/u2/follow", true)); !st.Following {
		t.Fatalf("read state = %+v", st)
	}
	if m := decode[domain.Members](t, serve(h, stdhttp.MethodGet, "/u2/followers", false)); len(m.Users) != 1 || m.Users[0] != "u1" {
		t.Fatalf("followers = %+v", m)
	}
	if m := decode[domain.Members](t, serve(h, stdhttp.MethodGet, "/u1/following", false)); len(m.Users) != 1 || m.Users[0] != "u2" {
		t.Fatalf("following = %+v", m)
	}

	rec = serve(h, stdhttp.MethodPost, "/u2/follow", true)
	if st := decode[domain.FollowState](t, rec); rec.Code != stdhttp.StatusOK || st.Following {
		t.Fatalf("unfollow = %d %+v", rec.Code, st)
	}
	if m := decode[domain.Members](t, serve(h, stdhttp.MethodGet, "/u2/followers", false)); len(m.Users) != 0 {
		t.Fatalf("followers after unfollow = %+v", m)
	}
}

func TestToggleFollowRejects(t *testing.T) {
	h := router(t)
	cases := []struct {
		path string
		want int
	}{
		{"/u1/follow", stdhttp.StatusBadRequest},
		{"/ghost/follow", stdhttp.StatusNotFound},
	}
	for _, tc := range cases {
		if rec := serve(h, stdhttp.MethodPost, tc.path, true); rec.Code != tc.want {
			t.Fatalf("%s: status = %d body %s", tc.path, rec.Code, rec.Body)
		}
	}
}
