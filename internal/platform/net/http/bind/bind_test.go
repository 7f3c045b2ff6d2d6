package bind

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/testkit"
)

type commentIn struct {
	Text string `json:"text" validate:"notblank,max=500"`
}

type pageIn struct {
	Cursor   string `query:"cursor"`
	PageSize int    `query:"pageSize" validate:"omitempty,min=1,max=50"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestParseJSON_Success(t *testing.T) {
	got, err := ParseJSON[commentIn](post(`{"text":"nice"}`))
	if err != nil || got.Text != "nice" {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func TestParseJSON_Failures(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		code  perr.ErrorCode
		field string
	}{
		{"empty body", "", perr.ErrorCodeJSON, ""},
		{"broken json", `{`, perr.ErrorCodeJSON, ""},
		{"unknown field", `{"text":"a","extra":1}`, perr.ErrorCodeJSON, ""},
		{"blank text", `{"text":"   "}`, perr.ErrorCodeValidation, "text"},
		{"too long", `{"text":"` + strings.Repeat("x", 501) + `"}`, perr.ErrorCodeValidation, "text"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseJSON[commentIn](post(c.body))
			if perr.CodeOf(err) != c.code {
				t.Fatalf("code = %v (%v), want %v", perr.CodeOf(err), err, c.code)
			}
			if e, ok := perr.As(err); ok && e.Field() != c.field {
				t.Fatalf("field = %q, want %q", e.Field(), c.field)
			}
		})
	}
}

func TestParseJSON_ShortMessages(t *testing.T) {
	_, err := ParseJSON[commentIn](post(`{"text":"` + strings.Repeat("x", 501) + `"}`))
	if err == nil || !strings.Contains(err.Error(), "text must be at most 500") {
		t.Fatalf("message = %v", err)
	}
	_, err = ParseJSON[commentIn](post(`{"text":""}`))
	if err == nil || !strings.Contains(err.Error(), "text must not be blank") {
		t.Fatalf("message = %v", err)
	}
}

func TestParseJSON_AllowEmptyBody(t *testing.T) {
	type opt struct {
		Note string `json:"note"`
	}
	got, err := ParseJSON[opt](httptest.NewRequest(http.MethodPost, "/", http.NoBody), JSONOptions{AllowEmptyBody: true})
	if err != nil || got != (opt{}) {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func TestParseJSON_AllowUnknown(t *testing.T) {
	got, err := ParseJSON[commentIn](post(`{"text":"a","extra":1}`), JSONOptions{MaxBytes: 1 << 10})
	if err != nil || got.Text != "a" {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func TestParseJSON_MaxBytes(t *testing.T) {
	_, err := ParseJSON[commentIn](post(`{"text":"abcdefgh"}`), JSONOptions{MaxBytes: 6, DisallowUnknown: true})
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("expected JSON error, got %v", err)
	}
}

func TestParseJSON_TrailingData(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &jsonMore, func(*json.Decoder) bool { return true })

	_, err := ParseJSON[commentIn](post(`{"text":"a"}`))
	if err == nil || !strings.Contains(err.Error(), "trailing") {
		t.Fatalf("expected trailing data error, got %v", err)
	}
}

func TestQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?cursor=abc&pageSize=10", nil)
	got, err := Query[pageIn](r)
	if err != nil || got.Cursor != "abc" || got.PageSize != 10 {
		t.Fatalf("got %+v, %v", got, err)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	if got, err := Query[pageIn](r); err != nil || got != (pageIn{}) {
		t.Fatalf("empty query: %+v, %v", got, err)
	}
}

func TestQuery_Errors(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?pageSize=ten", nil)
	_, err := Query[pageIn](r)
	if perr.CodeOf(err) != perr.ErrorCodeInvalidArgument {
		t.Fatalf("code = %v (%v)", perr.CodeOf(err), err)
	}
	if e, _ := perr.As(err); e.Field() != "pageSize" {
		t.Fatalf("field = %q", e.Field())
	}

	r = httptest.NewRequest(http.MethodGet, "/?pageSize=99", nil)
	_, err = Query[pageIn](r)
	if perr.CodeOf(err) != perr.ErrorCodeValidation || !strings.Contains(err.Error(), "pageSize must be at most 50") {
		t.Fatalf("validation = %v", err)
	}
}

func TestStruct_NonStructIsIgnored(t *testing.T) {
	if err := Struct(map[string]any{"a": 1}); err != nil {
		t.Fatalf("Struct(map) = %v", err)
	}
}

func TestTagName(t *testing.T) {
	type tagged struct {
		A string `json:"alpha,omitempty" validate:"required"`
		B string `json:"-" validate:"required"`
	}
	_, msg := ValidationFieldAndMessage(Get().Validator.Struct(tagged{B: "x"}))
	if !strings.HasPrefix(msg, "alpha") {
		t.Fatalf("json tag not used: %q", msg)
	}
	field, _ := ValidationFieldAndMessage(Get().Validator.Struct(tagged{A: "x"}))
	if field != "B" {
		t.Fatalf("dash tag should fall back to field name, got %q", field)
	}
}

func TestValidationFieldAndMessage_Generic(t *testing.T) {
	if f, m := ValidationFieldAndMessage(perr.Internalf("boom")); f != "" || m != "boom" {
		t.Fatalf("got %q %q", f, m)
	}
	if f, m := ValidationFieldAndMessage(nil); f != "" || m != "" {
		t.Fatalf("nil should be empty")
	}
}
