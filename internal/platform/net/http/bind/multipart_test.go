package bind

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	perr "popreel/internal/platform/errors"
)

type clipIn struct {
	Caption string `form:"caption" validate:"max=10"`
	Width   int    `form:"width"`
}

func multipartReq(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="file"; filename="clip.mp4"`)
		h.Set("Content-Type", "video/mp4")
		w, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = w.Write(file)
	}
	_ = mw.Close()
	r := httptest.NewRequest(http.MethodPost, "/", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestMultipart(t *testing.T) {
	r := multipartReq(t, map[string]string{"caption": "hi", "width": "9"}, []byte("data"))
	in, f, err := Multipart[clipIn](r, MultipartOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if in.Caption != "hi" || in.Width != 9 || f.Name != "clip.mp4" || f.ContentType != "video/mp4" || f.Size != 4 {
		t.Fatalf("got %+v %+v", in, f)
	}
}

func TestMultipart_Errors(t *testing.T) {
	cases := []struct {
		name string
		req  *http.Request
		opt  MultipartOptions
		code perr.ErrorCode
	}{
		{"not multipart", httptest.NewRequest(http.MethodPost, "/", nil), MultipartOptions{}, perr.ErrorCodeInvalidArgument},
		{"bad int", multipartReq(t, map[string]string{"width": "wide"}, []byte("x")), MultipartOptions{}, perr.ErrorCodeInvalidArgument},
		{"too long caption", multipartReq(t, map[string]string{"caption": "far too long caption"}, []byte("x")), MultipartOptions{}, perr.ErrorCodeValidation},
		{"missing file", multipartReq(t, nil, nil), MultipartOptions{}, perr.ErrorCodeValidation},
		{"too big", multipartReq(t, nil, bytes.Repeat([]byte("x"), 4096)), MultipartOptions{MaxBytes: 1024}, perr.ErrorCodeValidation},
	}
	for _, tc := range cases {
		_, _, err := Multipart[clipIn](tc.req, tc.opt)
		if !perr.IsCode(err, tc.code) {
			t.Fatalf("%s: got %v", tc.name, err)
		}
	}
}
