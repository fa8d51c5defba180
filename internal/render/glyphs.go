package render

import "sort"

const defaultGlyphs = "default"

var glyphSets = map[string][]rune{
	defaultGlyphs: []rune(" .,:-;+=*%#@"),
	"blocks":      []rune(" ░▒▓█"),
	"dots":        []rune(" ·∙•●"),
	"spark":       []rune("  ´`^\"~:;*+×•¤°oO@#█"),
}

// Glyphs returns the brightness ramp for name and the resolved name.
func Glyphs(name string) ([]rune, string) {
	if set, ok := glyphSets[name]; ok {
		return set, name
	}
	return glyphSets[defaultGlyphs], defaultGlyphs
}

// GlyphNames returns all glyph set identifiers.
func GlyphNames() []string {
	names := make([]string, 0, len(glyphSets))
	for name := range glyphSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
