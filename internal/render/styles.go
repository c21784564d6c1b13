package render

// Markdown style names accepted in the configuration
const (
	StyleDark       = "dark"
	StyleLight      = "light"
	StyleTokyoNight = "tokyonight"
	StyleDracula    = "dracula"
	StylePink       = "pink"
	StyleNoTTY      = "notty"
	StyleASCII      = "ascii"
)

// glamourStyle maps a configured name to the glamour style it selects.
// Unknown names are passed through as a style file path.
func glamourStyle(name string) string {
	switch name {
	case "":
		return StyleDark
	case StyleTokyoNight:
		return "tokyo-night"
	default:
		return name
	}
}

// IsBuiltinStyle reports whether name is one of StyleNames
func IsBuiltinStyle(name string) bool {
	for _, s := range StyleNames() {
		if s == name {
			return true
		}
	}
	return false
}

// StyleNames returns the built-in markdown style names
func StyleNames() []string {
	return []string{StyleDark, StyleLight, StyleTokyoNight, StyleDracula, StylePink, StyleNoTTY, StyleASCII}
}
