// Package qgisstyle writes QGIS .qml sidecar styles so classified shapefiles
// open in QGIS already colored by class.
package qgisstyle

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strings"

	"habitat-mapper/internal/palette"
	"habitat-mapper/pkg/colorutil"
)

const header = `<!DOCTYPE qgis PUBLIC 'http://mrcc.com/qgis.dtd' 'SYSTEM'>
<qgis version="3.28.0" styleCategories="AllStyleCategories">
  <renderer-v2 type="categorizedSymbol" symbollevels="0" enableorderby="0" forceraster="0" attr="best_class">
    <categories>
`

// WriteQML writes a categorized-symbol style for the given classes. Classes
// are sorted alphabetically so category indices are stable across runs.
func WriteQML(path string, classes []string, pal palette.Palette) error {
	sorted := append([]string(nil), classes...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString(header)
	for i, class := range sorted {
		fmt.Fprintf(&b, "      <category render=\"true\" symbol=\"%d\" value=\"%s\" label=\"%s\"/>\n",
			i, escape(class), escape(class))
	}
	b.WriteString("    </categories>\n    <symbols>\n")
	for i, class := range sorted {
		rgb, ok := pal[class]
		if !ok {
			rgb = colorutil.Gray
		}
		writeFillSymbol(&b, fmt.Sprintf("%d", i), "0.7", rgb)
	}
	b.WriteString("    </symbols>\n    <source-symbol>\n")
	writeFillSymbol(&b, "0", "1", colorutil.RGB{R: 145, G: 82, B: 45})
	b.WriteString(`    </source-symbol>
    <colorramp type="randomcolors" name="[source]">
      <Option/>
    </colorramp>
    <rotation/>
    <sizescale/>
  </renderer-v2>
  <layerGeometryType>2</layerGeometryType>
</qgis>
`)

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write style: %w", err)
	}
	return nil
}

func writeFillSymbol(b *strings.Builder, name, alpha string, rgb colorutil.RGB) {
	color := fmt.Sprintf("%d,%d,%d,255", rgb.R, rgb.G, rgb.B)
	fmt.Fprintf(b, `      <symbol alpha="%s" type="fill" name="%s" clip_to_extent="1" force_rhr="0">
        <data_defined_properties>
          <Option type="Map">
            <Option type="QString" name="name" value=""/>
            <Option name="properties"/>
            <Option type="QString" name="type" value="collection"/>
          </Option>
        </data_defined_properties>
        <layer pass="0" class="SimpleFill" enabled="1" locked="0">
          <Option type="Map">
            <Option type="QString" name="border_width_map_unit_scale" value="3x:0,0,0,0,0,0"/>
            <Option type="QString" name="color" value="%s"/>
            <Option type="QString" name="joinstyle" value="bevel"/>
            <Option type="QString" name="offset" value="0,0"/>
            <Option type="QString" name="offset_map_unit_scale" value="3x:0,0,0,0,0,0"/>
            <Option type="QString" name="offset_unit" value="MM"/>
            <Option type="QString" name="outline_color" value="35,35,35,255"/>
            <Option type="QString" name="outline_style" value="solid"/>
            <Option type="QString" name="outline_width" value="0.26"/>
            <Option type="QString" name="outline_width_unit" value="MM"/>
            <Option type="QString" name="style" value="solid"/>
          </Option>
          <prop k="border_width_map_unit_scale" v="3x:0,0,0,0,0,0"/>
          <prop k="color" v="%s"/>
          <prop k="joinstyle" v="bevel"/>
          <prop k="offset" v="0,0"/>
          <prop k="offset_map_unit_scale" v="3x:0,0,0,0,0,0"/>
          <prop k="offset_unit" v="MM"/>
          <prop k="outline_color" v="35,35,35,255"/>
          <prop k="outline_style" v="solid"/>
          <prop k="outline_width" v="0.26"/>
          <prop k="outline_width_unit" v="MM"/>
          <prop k="style" v="solid"/>
          <data_defined_properties>
            <Option type="Map">
              <Option type="QString" name="name" value=""/>
              <Option name="properties"/>
              <Option type="QString" name="type" value="collection"/>
            </Option>
          </data_defined_properties>
        </layer>
      </symbol>
`, alpha, name, color, color)
}

func escape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
