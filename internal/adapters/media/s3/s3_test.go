package s3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	cmedia "popreel/internal/core/media"
)

func TestAssetFor(t *testing.T) {
	m := cmedia.Meta{Duration: 12600 * time.Millisecond, Width: 720, Height: 1280}
	a := AssetFor("https://media.example.com/", Key("abc", ".webm"), m)
	if a.URL != "https://media.example.com/videos/abc.webm" || a.Thumbnail != a.URL {
		t.Fatalf("url = %q", a.URL)
	}
	if a.Duration != 13 || a.Format != "webm" || a.Width != 720 {
		t.Fatalf("asset = %+v", a)
	}
}

func TestNewValidatesEndpoint(t *testing.T) {
	if _, err := New(Config{Endpoint: "http://bad endpoint", Bucket: "b"}); err == nil {
		t.Fatalf("expected error for malformed endpoint")
	}
	s, err := New(Config{Endpoint: "localhost:9000", Bucket: "b", PublicURL: "http://localhost:9000/b/"})
	if err != nil {
		t.Fatal(err)
	}
	if s.public != "http://localhost:9000/b" {
		t.Fatalf("public = %q", s.public)
	}
}

func TestEnsureBucketCreatesMissing(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	exists := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodHead:
			if !exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			exists = true
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	s, err := New(Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		Region:    "us-east-1",
		Bucket:    "clips",
		AccessKey: "k",
		SecretKey: "s",
		PathStyle: true,
		PublicURL: srv.URL + "/clips",
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.EnsureBucket(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureBucket(ctx); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"HEAD /clips/", "PUT /clips/", "HEAD /clips/"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if strings.TrimSuffix(calls[i], "/") != strings.TrimSuffix(want[i], "/") {
			t.Fatalf("calls = %v", calls)
		}
	}
}
