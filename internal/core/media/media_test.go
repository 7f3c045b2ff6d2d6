package media

import (
	"testing"
	"time"

	perr "popreel/internal/platform/errors"
)

func TestValidate(t *testing.T) {
	ok := Meta{Size: 10 << 20, ContentType: "video/mp4", Duration: 15 * time.Second, Width: 1080, Height: 1920}
	if err := Validate(ok); err != nil {
		t.Fatalf("valid clip rejected: %v", err)
	}

	cases := []struct {
		name  string
		edit  func(*Meta)
		field string
	}{
		{"empty", func(m *Meta) { m.Size = 0 }, "file"},
		{"too big", func(m *Meta) { m.Size = MaxBytes + 1 }, "file"},
		{"not video", func(m *Meta) { m.ContentType = "image/png" }, "file"},
		{"no duration", func(m *Meta) { m.Duration = 0 }, "duration"},
		{"too long", func(m *Meta) { m.Duration = 61 * time.Second }, "duration"},
		{"no size", func(m *Meta) { m.Width = 0 }, "width"},
		{"landscape", func(m *Meta) { m.Width, m.Height = 1920, 1080 }, "height"},
		{"square", func(m *Meta) { m.Width, m.Height = 1000, 1000 }, "height"},
	}
	for _, tc := range cases {
		m := ok
		tc.edit(&m)
		err := Validate(m)
		if !perr.IsCode(err, perr.ErrorCodeValidation) {
			t.Fatalf("%s: want validation error, got %v", tc.name, err)
		}
		if f := perr.WireFrom(err).Field; f != tc.field {
			t.Fatalf("%s: field = %q want %q", tc.name, f, tc.field)
		}
	}
}

func TestValidateBoundaries(t *testing.T) {
	m := Meta{Size: MaxBytes, Duration: MaxDuration, Width: 1000, Height: 1600}
	if err := Validate(m); err != nil {
		t.Fatalf("limits are inclusive: %v", err)
	}
}

func TestExt(t *testing.T) {
	if got := Ext("Clip.MOV", "video/quicktime"); got != ".mov" {
		t.Fatalf("got %q", got)
	}
	if got := Ext("", "application/x-unknown-thing"); got != ".mp4" {
		t.Fatalf("got %q", got)
	}
	if !IsVideo("video/webm; codecs=vp9") || IsVideo("nonsense") {
		t.Fatalf("IsVideo")
	}
}
