package render

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme is the chat screen palette
type TUITheme struct {
	Name        string
	Description string

	Border lipgloss.Color
	Title  lipgloss.Color

	// User and assistant bubbles
	User      lipgloss.Color
	Assistant lipgloss.Color
	// System notes such as upload results
	System lipgloss.Color

	Recording lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text    lipgloss.Color
	TextDim lipgloss.Color
}

// Built-in TUI themes
var (
	TokyoNightTheme = TUITheme{
		Name:        "tokyonight",
		Description: "Tokyo Night, blue accents",
		Border:      lipgloss.Color("#414868"),
		Title:       lipgloss.Color("#7aa2f7"),
		User:        lipgloss.Color("#7aa2f7"),
		Assistant:   lipgloss.Color("#9ece6a"),
		System:      lipgloss.Color("#bb9af7"),
		Recording:   lipgloss.Color("#f7768e"),
		Warning:     lipgloss.Color("#e0af68"),
		Error:       lipgloss.Color("#f7768e"),
		Text:        lipgloss.Color("#c0caf5"),
		TextDim:     lipgloss.Color("#565f89"),
	}

	CatppuccinTheme = TUITheme{
		Name:        "catppuccin",
		Description: "Catppuccin Mocha, pastel",
		Border:      lipgloss.Color("#45475a"),
		Title:       lipgloss.Color("#cba6f7"),
		User:        lipgloss.Color("#89b4fa"),
		Assistant:   lipgloss.Color("#a6e3a1"),
		System:      lipgloss.Color("#f5c2e7"),
		Recording:   lipgloss.Color("#f38ba8"),
		Warning:     lipgloss.Color("#f9e2af"),
		Error:       lipgloss.Color("#f38ba8"),
		Text:        lipgloss.Color("#cdd6f4"),
		TextDim:     lipgloss.Color("#6c7086"),
	}

	NordTheme = TUITheme{
		Name:        "nord",
		Description: "Nord, cool tones",
		Border:      lipgloss.Color("#4c566a"),
		Title:       lipgloss.Color("#88c0d0"),
		User:        lipgloss.Color("#81a1c1"),
		Assistant:   lipgloss.Color("#a3be8c"),
		System:      lipgloss.Color("#b48ead"),
		Recording:   lipgloss.Color("#bf616a"),
		Warning:     lipgloss.Color("#ebcb8b"),
		Error:       lipgloss.Color("#bf616a"),
		Text:        lipgloss.Color("#eceff4"),
		TextDim:     lipgloss.Color("#7b88a1"),
	}

	// LightTheme suits bright terminals
	LightTheme = TUITheme{
		Name:        "light",
		Description: "Light background",
		Border:      lipgloss.Color("#c0c0c0"),
		Title:       lipgloss.Color("#1d4ed8"),
		User:        lipgloss.Color("#2563eb"),
		Assistant:   lipgloss.Color("#15803d"),
		System:      lipgloss.Color("#7c3aed"),
		Recording:   lipgloss.Color("#dc2626"),
		Warning:     lipgloss.Color("#b45309"),
		Error:       lipgloss.Color("#dc2626"),
		Text:        lipgloss.Color("#1f2937"),
		TextDim:     lipgloss.Color("#6b7280"),
	}
)

var (
	themeMu         sync.RWMutex
	currentTUITheme = TokyoNightTheme
)

// GetTUITheme returns the active theme
func GetTUITheme() TUITheme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTUITheme
}

// SetTUITheme activates a theme by name and reports whether it exists
func SetTUITheme(name string) bool {
	theme, ok := GetTUIThemeByName(name)
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTUITheme = theme
	themeMu.Unlock()
	return true
}

// GetTUIThemeByName looks up a built-in theme
func GetTUIThemeByName(name string) (TUITheme, bool) {
	for _, theme := range AvailableTUIThemes() {
		if theme.Name == name {
			return theme, true
		}
	}
	return TUITheme{}, false
}

// AvailableTUIThemes lists the built-in themes
func AvailableTUIThemes() []TUITheme {
	return []TUITheme{TokyoNightTheme, CatppuccinTheme, NordTheme, LightTheme}
}

// TUIThemeNames returns the built-in theme names
func TUIThemeNames() []string {
	themes := AvailableTUIThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
