package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"popreel/internal/core/model"
	"popreel/internal/modkit/httpkit"
	perr "popreel/internal/platform/errors"
	pnet "popreel/internal/platform/net"
	phttp "popreel/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type fakeSvc struct {
	marked []string
}

func (f *fakeSvc) Notify(context.Context, model.Notification) error { return nil }

func (f *fakeSvc) List(_ context.Context, uid string, limit int) ([]model.Notification, error) {
	return []model.Notification{{ID: "n1", TargetUserID: uid, CreatedAt: int64(limit)}}, nil
}

func (f *fakeSvc) MarkRead(_ context.Context, uid, id string) error {
	if id == "gone" {
		return perr.NotFoundf("notification %s not found", id)
	}
	f.marked = append(f.marked, uid+"/"+id)
	return nil
}

func router(s *fakeSvc) stdhttp.Handler {
	r := phttp.AdaptChi(chi.NewRouter())
	auth := httpkit.NewPortFunc(func(token string) (pnet.Principal, error) {
		if token != "good" {
			return pnet.Principal{}, perr.Unauthorizedf("bad token")
		}
		return pnet.Principal{UID: "u1"}, nil
	})
	Register(r, s, auth)
	return r.Mux()
}

func TestListRequiresAuth(t *testing.T) {
	h := router(&fakeSvc{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/", nil))
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListBindsLimit(t *testing.T) {
	h := router(&fakeSvc{})
	req := httptest.NewRequest(stdhttp.MethodGet, "/?limit=7", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	var env struct {
		Data []model.Notification `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if len(env.Data) != 1 || env.Data[0].TargetUserID != "u1" || env.Data[0].CreatedAt != 7 {
		t.Fatalf("data = %+v", env.Data)
	}

	req = httptest.NewRequest(stdhttp.MethodGet, "/?limit=1000", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code < 400 || rec.Code >= 500 {
		t.Fatalf("oversized limit accepted: %d", rec.Code)
	}
}

func TestMarkRead(t *testing.T) {
	s := &fakeSvc{}
	h := router(s)
	for _, tc := range []struct {
		id   string
		want int
	}{{"n1", stdhttp.StatusOK}, {"gone", stdhttp.StatusNotFound}} {
		req := httptest.NewRequest(stdhttp.MethodPost, "/"+tc.id+"/read", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: status = %d", tc.id, rec.Code)
		}
	}
	if len(s.marked) != 1 || s.marked[0] != "u1/n1" {
		t.Fatalf("marked = %v", s.marked)
	}
}
