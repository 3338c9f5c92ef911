package render

import (
	"github.com/charmbracelet/glamour/styles"
)

// Style names accepted in configuration
const (
	StyleDark       = "dark"
	StyleLight      = "light"
	StyleTokyoNight = "tokyonight"
	StyleDracula    = "dracula"
	StylePink       = "pink"
	StyleASCII      = "ascii"
	StyleNoTTY      = "notty"
	// StyleBasic renders with the format package instead of glamour.
	StyleBasic = "basic"
)

// styleAliases maps configuration names to glamour's names
var styleAliases = map[string]string{
	StyleTokyoNight: styles.TokyoNightStyle,
}

// StyleInfo describes a style for display purposes.
type StyleInfo struct {
	Name        string
	Description string
}

// AvailableStyles lists the styles that need no external file.
func AvailableStyles() []StyleInfo {
	return []StyleInfo{
		{Name: StyleDark, Description: "Dark theme (default)"},
		{Name: StyleLight, Description: "Light theme for bright terminals"},
		{Name: StyleTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: StyleDracula, Description: "Dracula color scheme"},
		{Name: StylePink, Description: "Pink accents"},
		{Name: StyleASCII, Description: "ASCII-only output"},
		{Name: StyleNoTTY, Description: "Plain text (no styling)"},
		{Name: StyleBasic, Description: "Minimal inline markup only"},
	}
}

// StyleNames returns just the style names.
func StyleNames() []string {
	list := AvailableStyles()
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.Name
	}
	return names
}

// IsBuiltinStyle reports whether style needs no file on disk.
func IsBuiltinStyle(style string) bool {
	for _, name := range StyleNames() {
		if name == style {
			return true
		}
	}
	return false
}

// glamourStyle returns the name or path glamour should load for style.
func glamourStyle(style string) string {
	if alias, ok := styleAliases[style]; ok {
		return alias
	}
	return style
}
