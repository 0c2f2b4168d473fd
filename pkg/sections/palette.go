package sections

import (
	"fmt"
	"strconv"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-docfill/pkg/model"
)

// Color is a background/text pair used to highlight fields of a section.
type Color struct {
	BG   string `json:"bg"`
	Text string `json:"text"`
}

// Palette is an indexable list of section colors.
type Palette []Color

// PaletteSize is the number of built-in section colors.
const PaletteSize = 8

// DefaultPalette is the fixed eight color palette persisted by index.
var DefaultPalette = Palette{
	{BG: "#dbeafe", Text: "#1e40af"},
	{BG: "#dcfce7", Text: "#166534"},
	{BG: "#fef3c7", Text: "#92400e"},
	{BG: "#fce7f3", Text: "#9d174d"},
	{BG: "#ede9fe", Text: "#5b21b6"},
	{BG: "#ffedd5", Text: "#9a3412"},
	{BG: "#cffafe", Text: "#155e75"},
	{BG: "#fee2e2", Text: "#991b1b"},
}

// NeutralColor is used for fields that belong to no section.
var NeutralColor = Color{BG: "#f3f4f6", Text: "#374151"}

// At returns the color for idx, wrapping out of range indexes.
func (p Palette) At(idx int) Color {
	if len(p) == 0 {
		return NeutralColor
	}
	if idx < 0 {
		idx = 0
	}
	return p[idx%len(p)]
}

// ColorMap maps every field key contained in sections onto its section color.
func ColorMap(sections []model.Section, palette Palette) map[string]Color {
	if palette == nil {
		palette = DefaultPalette
	}
	out := make(map[string]Color)
	for _, section := range sections {
		color := palette.At(section.ColorIndex)
		for _, key := range section.Fields {
			out[key] = color
		}
	}
	return out
}

// ColorFor returns the color of key, or NeutralColor when it is unsectioned.
func ColorFor(colors map[string]Color, key string) Color {
	if color, ok := colors[key]; ok {
		return color
	}
	return NeutralColor
}

// PaletteFromSelection overlays theme tokens named "section.<i>.bg" and
// "section.<i>.text" onto the default palette. Variant tokens take precedence
// over manifest tokens.
func PaletteFromSelection(selection *theme.Selection) Palette {
	out := append(Palette(nil), DefaultPalette...)
	if selection == nil || selection.Manifest == nil {
		return out
	}

	tokens := make(map[string]string, len(selection.Manifest.Tokens))
	for key, value := range selection.Manifest.Tokens {
		tokens[key] = value
	}
	if variant, ok := selection.Manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
	}

	for i := range out {
		prefix := "section." + strconv.Itoa(i) + "."
		if bg := tokens[prefix+"bg"]; bg != "" {
			out[i].BG = bg
		}
		if text := tokens[prefix+"text"]; text != "" {
			out[i].Text = text
		}
	}
	return out
}

// PaletteFor resolves a theme through selector and derives the palette. A nil
// selector yields the default palette.
func PaletteFor(selector theme.ThemeSelector, name, variant string) (Palette, error) {
	if selector == nil {
		return append(Palette(nil), DefaultPalette...), nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("sections: select theme %q: %w", name, err)
	}
	return PaletteFromSelection(selection), nil
}
