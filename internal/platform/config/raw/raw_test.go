package raw

import "testing"

func TestConfGet(t *testing.T) {
	t.Setenv("LOG_LEVEL", " info ")
	c := New().Prefix("LOG_")
	if got := c.Get("LEVEL", "debug"); got != "info" {
		t.Fatalf("Get = %q", got)
	}
	if got := c.Get("FORMAT", "console"); got != "console" {
		t.Fatalf("Get default = %q", got)
	}
}

func TestConfGetBool(t *testing.T) {
	c := New().Prefix("LOG_")
	cases := []struct {
		val  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"0", true, false},
		{"garbage", true, false},
	}
	for _, tc := range cases {
		t.Setenv("LOG_CALLER", tc.val)
		if got := c.GetBool("CALLER", tc.def); got != tc.want {
			t.Fatalf("GetBool(%q, %v) = %v", tc.val, tc.def, got)
		}
	}
}

func TestConfGetInt(t *testing.T) {
	c := New().Prefix("LOG_")
	cases := []struct {
		val  string
		want int
	}{
		{"", 5},
		{" 10 ", 10},
		{"-3", 5},
		{"ten", 5},
	}
	for _, tc := range cases {
		t.Setenv("LOG_SAMPLE_EVERY", tc.val)
		if got := c.GetInt("SAMPLE_EVERY", 5); got != tc.want {
			t.Fatalf("GetInt(%q) = %d, want %d", tc.val, got, tc.want)
		}
	}
}
