package cloudinary

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"popreel/internal/adapters/media"
	cmedia "popreel/internal/core/media"
	perr "popreel/internal/platform/errors"
)

func clip() media.Object {
	return media.Object{
		Body: bytes.NewReader([]byte("fake mp4 bytes")),
		Meta: cmedia.Meta{Filename: "clip.mp4", ContentType: "video/mp4", Size: 14},
	}
}

func newTestClient(url string) *Client {
	c := New(Options{BaseURL: url, CloudName: "demo", UploadPreset: "preset", MaxRetries: 2, RetryBase: time.Millisecond})
	c.sleep = func(time.Duration) {}
	return c
}

func TestUploadHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1_1/demo/video/upload" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("upload_preset") != "preset" || r.FormValue("resource_type") != "video" {
			t.Errorf("form = %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file: %v", err)
		} else {
			b, _ := io.ReadAll(f)
			if string(b) != "fake mp4 bytes" || hdr.Filename != "clip.mp4" {
				t.Errorf("file = %q %q", b, hdr.Filename)
			}
		}
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn/v.mp4","duration":12.6,"format":"mp4","width":1080,"height":1920}`))
	}))
	defer srv.Close()

	a, err := newTestClient(srv.URL).Upload(context.Background(), clip())
	if err != nil {
		t.Fatal(err)
	}
	if a.URL != "https://cdn/v.mp4" || a.Thumbnail != a.URL || a.Duration != 13 || a.Height != 1920 {
		t.Fatalf("asset = %+v", a)
	}
}

func TestUploadRetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn/v.mp4","thumbnail_url":"https://cdn/v.jpg"}`))
	}))
	defer srv.Close()

	a, err := newTestClient(srv.URL).Upload(context.Background(), clip())
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 || a.Thumbnail != "https://cdn/v.jpg" {
		t.Fatalf("calls = %d asset = %+v", calls.Load(), a)
	}
}

func TestUploadRateLimitedExhausts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Upload(context.Background(), clip())
	if !perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestUploadClientErrorCarriesOriginMessage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Upload(context.Background(), clip())
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) || perr.WireFrom(err).Message != "cloudinary: Upload preset not found" {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx should not retry, calls = %d", calls.Load())
	}
}

func TestUploadTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Upload(context.Background(), clip())
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err = %v", err)
	}
}
