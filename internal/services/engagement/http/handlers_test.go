package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"popreel/internal/core/model"
	"popreel/internal/modkit/httpkit"
	"popreel/internal/platform/docstore"
	"popreel/internal/platform/docstore/memdoc"
	perr "popreel/internal/platform/errors"
	pnet "popreel/internal/platform/net"
	phttp "popreel/internal/platform/net/http"
	"popreel/internal/platform/testkit"
	"popreel/internal/services/engagement/domain"
	"popreel/internal/services/engagement/repo"
	"popreel/internal/services/engagement/service"

	"github.com/go-chi/chi/v5"
)

// apiTimeout is short so the stream tests run past it
const apiTimeout = 50 * time.Millisecond

func server(t *testing.T) *httptest.Server {
	t.Helper()
	db := memdoc.New()
	err := db.Set(context.Background(), docstore.Ref{Collection: model.Videos, ID: "v1"}, docstore.Fields{
		"userId": "author", "caption": "clip", "likeCount": 0, "commentCount": 0, "createdAt": 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	auth := httpkit.NewPortFunc(func(token string) (pnet.Principal, error) {
		if token != "good" {
			return pnet.Principal{}, perr.Unauthorizedf("bad token")
		}
		return pnet.Principal{UID: "u1", Name: "Una"}, nil
	})
	mux := chi.NewRouter()
	httpkit.MountAPIV1(phttp.AdaptChi(mux), httpkit.CommonStack(httpkit.StackOptions{Timeout: apiTimeout}), func(api httpkit.Router) {
		Register(api, service.New(db, repo.New(), nil), auth)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, method, url string, signedIn bool) (int, []byte) {
	t.Helper()
	req, _ := stdhttp.NewRequest(method, url, nil)
	if signedIn {
		req.Header.Set("Authorization", "Bearer good")
	}
	resp, err := stdhttp.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func likeState(t *testing.T, body []byte) domain.LikeState {
	t.Helper()
	var env struct {
		Data domain.LikeState `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return env.Data
}

func TestToggleLikeAnswersNewState(t *testing.T) {
	srv := server(t)
	url := srv.URL + httpkit.APIBase + "/v1/like"

	if code, _ := call(t, stdhttp.MethodPost, url, false); code != stdhttp.StatusUnauthorized {
		t.Fatalf("anonymous toggle = %d", code)
	}

	for i, want := range []bool{true, false} {
		code, body := call(t, stdhttp.MethodPost, url, true)
		if code != stdhttp.StatusOK {
			t.Fatalf("toggle %d: status %d body %s", i, code, body)
		}
		if got := likeState(t, body); got.VideoID != "v1" || got.Liked != want {
			t.Fatalf("toggle %d: %+v, want liked=%v", i, got, want)
		}
	}

	code, body := call(t, stdhttp.MethodGet, url, true)
	if code != stdhttp.StatusOK || likeState(t, body).Liked {
		t.Fatalf("liked read: %d %s", code, body)
	}
}

func TestToggleLikeUnknownVideo(t *testing.T) {
	srv := server(t)
	if code, body := call(t, stdhttp.MethodPost, srv.URL+httpkit.APIBase+"/ghost/like", true); code != stdhttp.StatusNotFound {
		t.Fatalf("status %d body %s", code, body)
	}
}

func TestLikesStreamSendsCountThenUpdates(t *testing.T) {
	srv := server(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// no Accept header: the stream must not depend on it
	req, _ := stdhttp.NewRequestWithContext(ctx, stdhttp.MethodGet, srv.URL+httpkit.APIBase+"/v1/likes/stream", nil)
	resp, err := stdhttp.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK || resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Fatalf("status %d content type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	frames := testkit.DataFrames(resp.Body)

	var got domain.LikeCount
	if err := json.Unmarshal([]byte(testkit.Recv(t, frames, time.Second)), &got); err != nil {
		t.Fatal(err)
	}
	if got.VideoID != "v1" || got.LikeCount != 0 {
		t.Fatalf("initial = %+v", got)
	}

	time.Sleep(3 * apiTimeout)
	if code, _ := call(t, stdhttp.MethodPost, srv.URL+httpkit.APIBase+"/v1/like", true); code != stdhttp.StatusOK {
		t.Fatalf("toggle = %d", code)
	}
	select {
	case frame, open := <-frames:
		if !open {
			t.Fatalf("stream closed before the update")
		}
		if err := json.Unmarshal([]byte(frame), &got); err != nil || got.LikeCount != 1 {
			t.Fatalf("update = %q (%v)", frame, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no update after the like")
	}
}

func TestLikesStreamUnknownVideo(t *testing.T) {
	srv := server(t)
	if code, _ := call(t, stdhttp.MethodGet, srv.URL+httpkit.APIBase+"/ghost/likes/stream", false); code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d", code)
	}
}
