package qgisstyle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"habitat-mapper/internal/palette"
	"habitat-mapper/pkg/colorutil"
)

func TestWriteQML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.qml")
	classes := []string{"water", "forest"}
	pal := palette.Palette{
		"forest": {R: 10, G: 200, B: 30},
		"water":  {R: 0, G: 0, B: 255},
	}
	if err := WriteQML(path, classes, pal); err != nil {
		t.Fatalf("WriteQML: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	qml := string(data)

	if !strings.Contains(qml, `attr="best_class"`) {
		t.Error("renderer not keyed on best_class")
	}
	// Alphabetical category order: forest is symbol 0.
	if !strings.Contains(qml, `<category render="true" symbol="0" value="forest" label="forest"/>`) {
		t.Error("forest category missing or out of order")
	}
	if !strings.Contains(qml, `<category render="true" symbol="1" value="water" label="water"/>`) {
		t.Error("water category missing")
	}
	if !strings.Contains(qml, `value="10,200,30,255"`) {
		t.Error("forest fill color missing")
	}
	if !strings.Contains(qml, `alpha="0.7"`) {
		t.Error("category symbols not semi-transparent")
	}
	if !strings.Contains(qml, "<source-symbol>") {
		t.Error("source symbol block missing")
	}
}

func TestWriteQMLEscapesClassNames(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.qml")
	err := WriteQML(path, []string{`scrub & <gorse>`}, palette.Palette{
		`scrub & <gorse>`: colorutil.Gray,
	})
	if err != nil {
		t.Fatalf("WriteQML: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "scrub &amp; &lt;gorse&gt;") {
		t.Error("class name not XML-escaped")
	}
}
