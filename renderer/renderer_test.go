package renderer

import "testing"

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{
		"out/card.pdf": FormatPDF,
		"card.SVG":     FormatSVG,
		"card.png":     FormatPNG,
		"card":         FormatPDF,
	}
	for path, want := range cases {
		if got := FormatFromPath(path); got != want {
			t.Fatalf("FormatFromPath(%q) = %s, want %s", path, got, want)
		}
	}
}
