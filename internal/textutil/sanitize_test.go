package textutil

import "testing"

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Night Train", 0, "night-train"},
		{"  Café au Lait!! ", 0, "cafe-au-lait"},
		{"Über / Straße: 2", 0, "uber-stra-e-2"},
		{"---", 0, "untitled"},
		{"a very long storyboard title", 10, "a-very-lon"},
		{"abc def", 4, "abc"},
	}
	for _, tc := range tests {
		if got := Slug(tc.in, tc.max); got != tc.want {
			t.Fatalf("Slug(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := Label("scene_generation_failed"); got != "Scene Generation Failed" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := Label("generating"); got != "Generating" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := Label("  "); got != "" {
		t.Fatalf("expected empty label, got %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName(` A/B: "c"? `); got != "A-B- c" {
		t.Fatalf("unexpected file name %q", got)
	}
}
