package colorutil

import "testing"

func TestHSVToRGBPrimaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		h    float64
		want RGB
	}{
		{0, RGB{R: 255}},
		{120, RGB{G: 255}},
		{240, RGB{B: 255}},
	}
	for _, c := range cases {
		if got := HSVToRGB(c.h, 1, 1); got != c.want {
			t.Errorf("HSVToRGB(%.0f) = %v, want %v", c.h, got, c.want)
		}
	}
}

func TestHexRoundTrip(t *testing.T) {
	t.Parallel()

	orig := RGB{R: 10, G: 200, B: 30}
	parsed, err := ParseHex(orig.Hex())
	if err != nil {
		t.Fatalf("ParseHex: %v", err)
	}
	if parsed != orig {
		t.Errorf("round trip %v -> %v", orig, parsed)
	}
}

func TestParseHexRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "#12345", "zzzzzz", "#1234567"} {
		if _, err := ParseHex(s); err == nil {
			t.Errorf("ParseHex(%q) accepted", s)
		}
	}
}
