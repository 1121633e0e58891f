package classname

import "testing"

func TestParseDropsEmptySegments(t *testing.T) {
	t.Parallel()

	p := Parse("woodland;;broadleaved; ")
	if len(p) != 2 || p[0] != "woodland" || p[1] != "broadleaved" {
		t.Fatalf("got %v", p)
	}
}

func TestStringRoundTrip(t *testing.T) {
	t.Parallel()

	p := Parse("heath;dry;lowland")
	if p.String() != "heath;dry;lowland" {
		t.Errorf("got %q", p.String())
	}
	if p.Top() != "heath" {
		t.Errorf("Top = %q", p.Top())
	}
}

func TestFileToken(t *testing.T) {
	t.Parallel()

	p := Parse("Blanket Bog;upland/montane")
	if got := p.FileToken(); got != "Blanket_Bog_upland_montane" {
		t.Errorf("FileToken = %q", got)
	}
}

func TestFromFileToken(t *testing.T) {
	t.Parallel()

	p := FromFileToken("woodland_broadleaved")
	if p.String() != "woodland;broadleaved" {
		t.Errorf("got %q", p.String())
	}
}

func TestColorKey(t *testing.T) {
	t.Parallel()

	if got := Parse("Blanket Bog;upland").ColorKey(); got != "blanket-bog" {
		t.Errorf("ColorKey = %q", got)
	}
}

func TestPrompt(t *testing.T) {
	t.Parallel()

	cases := []struct {
		class    string
		template string
		want     string
	}{
		{"forest", "", "forest"},
		{"forest", "a photo of {class}", "a photo of forest"},
		{"woodland;broadleaved", "aerial image of {class}", "aerial image of woodland, broadleaved"},
		{"forest", "satellite view of", "satellite view of forest"},
	}
	for _, c := range cases {
		if got := Parse(c.class).Prompt(c.template); got != c.want {
			t.Errorf("Prompt(%q, %q) = %q, want %q", c.class, c.template, got, c.want)
		}
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	if !Parse("a;b").Equal(Parse("a;b")) {
		t.Error("identical paths compare unequal")
	}
	if Parse("a;b").Equal(Parse("a")) {
		t.Error("different lengths compare equal")
	}
}
