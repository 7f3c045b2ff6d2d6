package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	phttp "popreel/internal/platform/net/http"
	pnet "popreel/internal/platform/net"

	"github.com/go-chi/chi/v5"
)

func testPort() *Port {
	return NewPortFunc(func(tok string) (pnet.Principal, error) {
		if tok == "t1" {
			return pnet.Principal{UID: "u1"}, nil
		}
		return pnet.Principal{}, errors.New("bad")
	})
}

func newTestRouter() (*chi.Mux, Router) {
	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	r.Route("/things", func(r Router) {
		Public(r, testPort(), func(r Router) {
			Get(r, "/", func(req *http.Request) (any, error) {
				return map[string]string{"viewer": pnet.UserID(req.Context())}, nil
			})
		})
		Protected(r, testPort(), func(r Router) {
			Post(r, "/{id}/like", func(req *http.Request) (any, error) {
				uid, err := User(req)
				if err != nil {
					return nil, err
				}
				return map[string]string{"id": Param(req, "id"), "uid": uid}, nil
			})
		})
	})
	return mux, r
}

func TestProtectedRejectsAnonymous(t *testing.T) {
	t.Parallel()

	mux, _ := newTestRouter()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/things/v1/like", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/things/v1/like", nil)
	req.Header.Set("Authorization", "Bearer t1")
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"uid":"u1"`) || !strings.Contains(rec.Body.String(), `"id":"v1"`) {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestPublicAllowsAnonymousButRejectsBadTokens(t *testing.T) {
	t.Parallel()

	mux, _ := newTestRouter()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"viewer":""`) {
		t.Fatalf("anonymous: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/things/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", rec.Code)
	}
}

func TestRequiresAuthSeesProtectedRoutes(t *testing.T) {
	t.Parallel()

	mux, _ := newTestRouter()
	secured := map[string]bool{}
	err := chi.Walk(mux, func(method, route string, _ http.Handler, mws ...func(http.Handler) http.Handler) error {
		secured[method+" "+route] = RequiresAuth(mws)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !secured["POST /things/{id}/like"] {
		t.Fatalf("like route not marked: %v", secured)
	}
	if secured["GET /things/"] {
		t.Fatalf("public route marked secured: %v", secured)
	}
	if RequiresAuth([]func(http.Handler) http.Handler{Optional(testPort())}) {
		t.Fatalf("optional auth counted as required")
	}
}
